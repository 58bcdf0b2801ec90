// Package processor ingests unread mail for every linked account: fetch,
// classify, summarize, persist, archive.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ignite/email-sorter/internal/classify"
	"github.com/ignite/email-sorter/internal/mailbox"
	"github.com/ignite/email-sorter/internal/pkg/logger"
	"github.com/ignite/email-sorter/internal/store"
)

// Store is the persistence surface the processor needs.
type Store interface {
	ListAllGmailAccounts(ctx context.Context) ([]store.GmailAccount, error)
	EmailExists(ctx context.Context, gmailMessageID string) (bool, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]store.Category, error)
	GetOrCreateUncategorized(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	InsertEmail(ctx context.Context, e *store.Email) error
}

// MailboxFactory opens a mailbox from an account's stored credentials.
type MailboxFactory func(ctx context.Context, credentialsJSON string) (mailbox.Mailbox, error)

// GmailFactory builds real Gmail mailboxes using the given OAuth client
// config.
func GmailFactory(conf *oauth2.Config) MailboxFactory {
	return func(ctx context.Context, credentialsJSON string) (mailbox.Mailbox, error) {
		tok := &oauth2.Token{}
		if err := json.Unmarshal([]byte(credentialsJSON), tok); err != nil {
			return nil, fmt.Errorf("parse stored credentials: %w", err)
		}
		return mailbox.NewGmail(ctx, conf, tok)
	}
}

// Processor runs ingestion batches.
type Processor struct {
	store       Store
	classifier  classify.Classifier
	summarizer  classify.Summarizer
	openMailbox MailboxFactory
	maxPerBatch int64
	interval    time.Duration
}

// New creates a processor. maxPerBatch caps unread messages per account per
// run; interval drives Run's schedule.
func New(st Store, classifier classify.Classifier, summarizer classify.Summarizer, openMailbox MailboxFactory, maxPerBatch int, interval time.Duration) *Processor {
	if maxPerBatch <= 0 {
		maxPerBatch = 10
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Processor{
		store:       st,
		classifier:  classifier,
		summarizer:  summarizer,
		openMailbox: openMailbox,
		maxPerBatch: int64(maxPerBatch),
		interval:    interval,
	}
}

// Run processes immediately and then on every interval tick until the
// context is cancelled.
func (p *Processor) Run(ctx context.Context) {
	logger.Info("processor: scheduler started", "interval", p.interval.String())
	p.ProcessAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("processor: scheduler stopped")
			return
		case <-ticker.C:
			p.ProcessAll(ctx)
		}
	}
}

// ProcessAll runs one batch for every linked account. One account's failure
// never aborts the others.
func (p *Processor) ProcessAll(ctx context.Context) {
	accounts, err := p.store.ListAllGmailAccounts(ctx)
	if err != nil {
		logger.Error("processor: listing accounts failed", "error", err)
		return
	}
	logger.Info("processor: batch starting", "accounts", len(accounts))

	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}
		if err := p.processAccount(ctx, account); err != nil {
			logger.Error("processor: account failed", "account", account.Email, "error", err)
		}
	}
}

func (p *Processor) processAccount(ctx context.Context, account store.GmailAccount) error {
	mb, err := p.openMailbox(ctx, account.Credentials)
	if err != nil {
		return fmt.Errorf("open mailbox: %w", err)
	}

	ids, err := mb.ListUnread(ctx, p.maxPerBatch)
	if err != nil {
		return fmt.Errorf("list unread: %w", err)
	}
	logger.Info("processor: unread listed", "account", account.Email, "count", len(ids))

	processed := 0
	for _, id := range ids {
		if err := p.processMessage(ctx, mb, account, id); err != nil {
			logger.Warn("processor: message failed", "message_id", id, "error", err)
			continue
		}
		processed++
	}
	logger.Info("processor: account done", "account", account.Email, "processed", processed)
	return nil
}

func (p *Processor) processMessage(ctx context.Context, mb mailbox.Mailbox, account store.GmailAccount, id string) error {
	exists, err := p.store.EmailExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("processor: already processed", "message_id", id)
		return nil
	}

	msg, err := mb.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	content := msg.Content()

	categories, err := p.store.ListCategories(ctx, account.UserID)
	if err != nil {
		return err
	}

	categoryID, ok := p.classifier.Classify(ctx, content, toClassifyCategories(categories))
	if !ok {
		categoryID, err = p.store.GetOrCreateUncategorized(ctx, account.UserID)
		if err != nil {
			return err
		}
	}

	summary := p.summarizer.Summarize(ctx, content)

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	if err := p.store.InsertEmail(ctx, &store.Email{
		GmailAccountID: account.ID,
		CategoryID:     categoryID,
		GmailMessageID: msg.ID,
		Subject:        msg.Subject,
		Sender:         msg.Sender,
		Body:           content,
		Summary:        summary,
		ReceivedAt:     receivedAt,
	}); err != nil {
		return err
	}

	// Archive only after the insert: a crash in between leaves the message
	// unread and it gets picked up again.
	if err := mb.Archive(ctx, id); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

func toClassifyCategories(in []store.Category) []classify.Category {
	out := make([]classify.Category, len(in))
	for i, c := range in {
		out[i] = classify.Category{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	return out
}
