package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/orderfellow/orderfellow/internal/adapter/postgres"
	"github.com/orderfellow/orderfellow/internal/adapter/smtp"
	"github.com/orderfellow/orderfellow/internal/config"
	"github.com/orderfellow/orderfellow/internal/domain/company"
	"github.com/orderfellow/orderfellow/internal/middleware"
	"github.com/orderfellow/orderfellow/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-company":
		return runAdminCreateCompany(args[1:])
	case "approve-company":
		return runAdminApproveCompany(args[1:])
	case "get-webhook-secret":
		return runAdminGetWebhookSecret(args[1:])
	case "list-companies":
		return runAdminListCompanies(args[1:])
	case "retry-notifications":
		return runAdminRetryNotifications(args[1:])
	case "send-test-webhook":
		return runAdminSendTestWebhook(args[1:])
	case "test-email":
		return runAdminTestEmail(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: orderfellow admin <command> [options]

Commands:
  create-company       Register a new company (KYC pending)
  approve-company      Approve KYC and issue a webhook secret
  get-webhook-secret   Show a company's webhook secret
  list-companies       List all registered companies
  retry-notifications  Resend failed notifications from the last 24h
  send-test-webhook    Post a sample order webhook to a running server
  test-email           Send a test email through the configured SMTP server
  help                 Show this help message

Examples:
  orderfellow admin create-company --name "Acme Store" --email ops@acme.test
  orderfellow admin approve-company --email ops@acme.test
  orderfellow admin get-webhook-secret --email ops@acme.test
  orderfellow admin send-test-webhook --secret whsec_abc --url http://localhost:8080
  orderfellow admin test-email --to me@example.com
`)
}

func loadAdminStore() (*postgres.Store, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	cleanup := func() {
		pool.Close()
	}
	return store, cfg, cleanup, nil
}

func runAdminCreateCompany(args []string) error {
	fs := flag.NewFlagSet("create-company", flag.ContinueOnError)
	name := fs.String("name", "", "company name (required)")
	email := fs.String("email", "", "business email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return fmt.Errorf("--name and --email are required")
	}

	store, _, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	co, err := store.CreateCompany(context.Background(), company.CreateRequest{
		Name:          *name,
		BusinessEmail: *email,
	})
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Company created: %s (id=%s, kyc=%s)\n", co.Name, co.ID, co.KYCStatus)
	fmt.Fprintln(os.Stderr, "Run approve-company to issue the webhook secret.")
	return nil
}

func runAdminApproveCompany(args []string) error {
	fs := flag.NewFlagSet("approve-company", flag.ContinueOnError)
	email := fs.String("email", "", "business email of the company (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	store, _, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	co, err := store.GetCompanyByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("find company: %w", err)
	}

	secret, err := generateWebhookSecret(co.ID)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}

	if err := store.ApproveCompany(ctx, co.ID, secret); err != nil {
		return fmt.Errorf("approve company: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Company approved: %s\n", co.Name)
	fmt.Fprintf(os.Stderr, "Webhook secret: %s\n", secret)
	fmt.Fprintf(os.Stderr, "Send it in the %s header.\n", middleware.HeaderWebhookSecret)
	return nil
}

func runAdminGetWebhookSecret(args []string) error {
	fs := flag.NewFlagSet("get-webhook-secret", flag.ContinueOnError)
	email := fs.String("email", "", "business email of the company (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	store, _, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	co, err := store.GetCompanyByEmail(context.Background(), *email)
	if err != nil {
		return fmt.Errorf("find company: %w", err)
	}
	if co.WebhookSecret == "" {
		return fmt.Errorf("company %s has no webhook secret yet (approve it first)", co.Name)
	}

	fmt.Println(co.WebhookSecret)
	return nil
}

func runAdminListCompanies(args []string) error {
	fs := flag.NewFlagSet("list-companies", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, _, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	companies, err := store.ListCompanies(context.Background())
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	if len(companies) == 0 {
		fmt.Println("No companies found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tKYC\tWEBHOOK_ACTIVE")
	for i := range companies {
		c := &companies[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			c.ID, c.Name, c.BusinessEmail, c.KYCStatus, c.IsWebhookActive)
	}
	return w.Flush()
}

func runAdminRetryNotifications(args []string) error {
	fs := flag.NewFlagSet("retry-notifications", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, cfg, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	dispatcher := service.NewDispatcher(store, smtp.New(cfg.SMTP),
		cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.RetryParallel, nil)

	result, err := dispatcher.RetryFailed(context.Background())
	if err != nil {
		return fmt.Errorf("retry notifications: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Retried %d notifications: %d succeeded, %d failed\n",
		result.Total, result.Success, result.Failed)
	return nil
}

func runAdminSendTestWebhook(args []string) error {
	fs := flag.NewFlagSet("send-test-webhook", flag.ContinueOnError)
	secret := fs.String("secret", "", "webhook secret (required)")
	url := fs.String("url", "http://localhost:8080", "server base URL")
	email := fs.String("customer-email", "customer@example.com", "customer email for the test order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("--secret is required")
	}

	payload := map[string]string{
		"externalOrderId": fmt.Sprintf("TEST-%d", time.Now().Unix()),
		"customerEmail":   *email,
		"itemSummary":     "1x Test Widget",
		"deliveryAddress": "123 Test Street, Testville",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		*url+"/webhooks/order-received", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderWebhookSecret, *secret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Fprintf(os.Stderr, "HTTP %d\n%s\n", resp.StatusCode, respBody)
	return nil
}

func runAdminTestEmail(args []string) error {
	fs := flag.NewFlagSet("test-email", flag.ContinueOnError)
	to := fs.String("to", "", "recipient address (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("--to is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	body, err := service.NewRenderer().TestEmail(time.Now())
	if err != nil {
		return fmt.Errorf("render test email: %w", err)
	}

	result, err := smtp.New(cfg.SMTP).Send(context.Background(), *to, "Email Configuration Test", body)
	if err != nil {
		return fmt.Errorf("send test email: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Test email sent to %s (message id %s)\n", *to, result.MessageID)
	return nil
}

// generateWebhookSecret derives an unguessable credential bound to nothing
// the caller can predict: company id, issue time and 32 random bytes.
func generateWebhookSecret(companyID string) (string, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(companyID))
	h.Write([]byte(time.Now().UTC().Format(time.RFC3339Nano)))
	h.Write(random)

	return "whsec_" + hex.EncodeToString(h.Sum(nil)), nil
}
