package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/Omyelshetty/RentApp/internal/models"
	"github.com/Omyelshetty/RentApp/internal/repository"
	"github.com/google/uuid"
)

var (
	// ErrQueueFull is returned when no worker slot is free; the receipt is marked failed.
	ErrQueueFull = errors.New("receipt queue is full")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("receipt pool is stopped")
	// ErrStillRendering is returned when the wait timeout elapses first. The receipt
	// stays pending and is finished in the background.
	ErrStillRendering = errors.New("receipt is still rendering")
)

// renderTimeout bounds one job, independent of the request that submitted it.
const renderTimeout = 30 * time.Second

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers     int
	QueueSize   int
	WaitTimeout time.Duration
}

type job struct {
	paymentID uuid.UUID
	done      chan error
}

// Pool renders receipts on a fixed set of workers fed by a buffered queue.
type Pool struct {
	payments   repository.PaymentRepository
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	files      *FileStore
	renderer   Renderer
	log        *logger.Logger
	jobs       chan job
	cfg        PoolConfig
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
}

// NewPool creates a pool. Call Start before Emit.
func NewPool(store *repository.Store, files *FileStore, renderer Renderer, cfg PoolConfig, log *logger.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	return &Pool{
		payments:   store.Payments,
		tenants:    store.Tenants,
		properties: store.Properties,
		files:      files,
		renderer:   renderer,
		log:        log.WithComponent("receipts"),
		jobs:       make(chan job, cfg.QueueSize),
		cfg:        cfg,
	}
}

// Start launches the workers. They exit when Stop is called or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
	p.log.Info("Receipt workers started", map[string]interface{}{
		"workers":    p.cfg.Workers,
		"queue_size": p.cfg.QueueSize,
	})
}

// Stop stops accepting jobs and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("Receipt workers stopped", nil)
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			j.done <- p.Render(ctx, j.paymentID)
		case <-ctx.Done():
			return
		}
	}
}

// Emit queues the receipt of a payment and waits for it up to the configured timeout.
func (p *Pool) Emit(ctx context.Context, paymentID uuid.UUID) error {
	j := job{paymentID: paymentID, done: make(chan error, 1)}

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrStopped
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		p.markFailed(ctx, paymentID, ErrQueueFull.Error())
		return ErrQueueFull
	}

	timer := time.NewTimer(p.cfg.WaitTimeout)
	defer timer.Stop()

	select {
	case err := <-j.done:
		return err
	case <-timer.C:
		return ErrStillRendering
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render renders the receipt of a payment synchronously and records the outcome on
// the payment.
func (p *Pool) Render(ctx context.Context, paymentID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	record, err := p.payments.GetByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if record == nil {
		return fmt.Errorf("payment %s not found", paymentID)
	}
	if record.Status != models.PaymentStatusPaid {
		err := fmt.Errorf("payment %s is %s, receipts are issued for paid payments only", paymentID, record.Status)
		p.markFailed(ctx, paymentID, err.Error())
		return err
	}

	tenant, err := p.tenants.GetByID(ctx, record.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil {
		err := fmt.Errorf("tenant %s not found", record.TenantID)
		p.markFailed(ctx, paymentID, err.Error())
		return err
	}

	var property *models.Property
	if id := propertyOf(record, tenant); id != nil {
		property, err = p.properties.GetByID(ctx, *id)
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
	}

	content := BuildContent(*record, *tenant, property)
	start := time.Now()
	err = p.files.Write(record.ReceiptID, func(w io.Writer) error {
		return p.renderer.Render(w, content)
	})
	if err != nil {
		p.log.Error("Failed to render receipt", err, map[string]interface{}{
			"payment_id": paymentID.String(),
			"receipt_id": record.ReceiptID,
		})
		p.markFailed(ctx, paymentID, "receipt could not be written")
		return err
	}

	url := p.files.URL(record.ReceiptID)
	if _, err := p.payments.UpdateReceipt(ctx, paymentID, repository.ReceiptUpdate{
		Status: models.ReceiptStatusReady,
		URL:    &url,
	}); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}

	p.log.Info("Receipt ready", map[string]interface{}{
		"payment_id":  paymentID.String(),
		"receipt_id":  record.ReceiptID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func propertyOf(record *models.PaymentRecord, tenant *models.Tenant) *uuid.UUID {
	if record.PropertyID != nil {
		return record.PropertyID
	}
	return tenant.PropertyID
}

func (p *Pool) markFailed(ctx context.Context, paymentID uuid.UUID, reason string) {
	if _, err := p.payments.UpdateReceipt(ctx, paymentID, repository.ReceiptUpdate{
		Status: models.ReceiptStatusFailed,
		Error:  &reason,
	}); err != nil {
		p.log.Error("Failed to record receipt failure", err, map[string]interface{}{
			"payment_id": paymentID.String(),
		})
	}
}

// Discard removes the receipt file of a deleted payment.
func (p *Pool) Discard(receiptID string) error {
	return p.files.Remove(receiptID)
}
