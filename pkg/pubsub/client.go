package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	kindTopic        = "topics"
	kindSubscription = "subscriptions"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub invoice topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client publishes invoice lifecycle events. It checks, and with AutoCreate
// provisions, the invoice topic and its optional subscription at startup.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	logg      *logger.Logger
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.InvoiceTopic) == "" {
		return nil, errNoTopic
	}

	raw, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp, cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: raw, projectID: projectID, cfg: cfg, logg: logg}
	if err := c.ensureResources(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topic":    c.resourceName(kindTopic, cfg.InvoiceTopic),
			"emulator": cfg.EmulatorHost != "",
		}), "pubsub client ready")
	}
	return c, nil
}

// clientOptions prefers an emulator endpoint, then inline credentials, then a
// credentials file. With none set the client uses application defaults.
func clientOptions(gcp config.GCPConfig, cfg config.PubSubConfig) []option.ClientOption {
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		return []option.ClientOption{
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	}
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) ensureResources(ctx context.Context) error {
	topic := c.resourceName(kindTopic, c.cfg.InvoiceTopic)
	if topic == "" {
		return errNoTopic
	}
	if err := c.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if sub := c.resourceName(kindSubscription, c.cfg.InvoiceSubscription); sub != "" {
		return c.ensureSubscription(ctx, sub, topic)
	}
	return nil
}

func (c *Client) ensureTopic(ctx context.Context, topic string) error {
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
	if status.Code(err) == codes.NotFound && c.cfg.AutoCreate {
		_, err = c.client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topic})
		if status.Code(err) == codes.AlreadyExists {
			err = nil
		}
	}
	return resourceError("topic", topic, err)
}

// ensureSubscription provisions with message ordering on, matching the
// publisher's per-invoice ordering keys.
func (c *Client) ensureSubscription(ctx context.Context, sub, topic string) error {
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
	if status.Code(err) == codes.NotFound && c.cfg.AutoCreate {
		_, err = c.client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
			Name:                  sub,
			Topic:                 topic,
			EnableMessageOrdering: true,
		})
		if status.Code(err) == codes.AlreadyExists {
			err = nil
		}
	}
	return resourceError("subscription", sub, err)
}

func resourceError(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking %s %q: %w", kind, name, err)
	}
}

// Publisher returns a handle for a topic ID or full resource name. The
// handle has message ordering enabled so ordering keys are honoured.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	topic := c.resourceName(kindTopic, name)
	if topic == "" {
		return nil
	}
	pub := c.client.Publisher(topic)
	pub.EnableMessageOrdering = true
	return pub
}

// InvoicePublisher returns the publisher for invoice lifecycle events.
func (c *Client) InvoicePublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.cfg.InvoiceTopic)
}

// Ping re-checks that the configured resources are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.ensureResources(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceName expands a short ID to projects/<project>/<kind>/<id>. Names
// already in resource form pass through.
func (c *Client) resourceName(kind, name string) string {
	if c == nil {
		return ""
	}
	id := strings.TrimSpace(name)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "projects/") && strings.Contains(id, "/"+kind+"/") {
		return id
	}
	if c.projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", c.projectID, kind, id)
}
