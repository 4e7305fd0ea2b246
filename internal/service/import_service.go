package service

import (
	"context"
	"sync"
	"time"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/fintrackable/fintrackable-backend/internal/importer"
	"github.com/fintrackable/fintrackable-backend/internal/repository/storage"
	"github.com/fintrackable/fintrackable-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CacheInvalidator drops cached read models after a ledger write.
type CacheInvalidator interface {
	InvalidateOwner(ownerID uuid.UUID)
}

// ImportServiceConfig holds tuning for the in-memory job store
type ImportServiceConfig struct {
	ReviewTTL     time.Duration // How long an unreviewed preview is kept
	RetainDone    time.Duration // How long terminal jobs stay queryable
	SweepInterval time.Duration // How often expired jobs are pruned
}

// DefaultImportServiceConfig returns sensible defaults
func DefaultImportServiceConfig() ImportServiceConfig {
	return ImportServiceConfig{
		ReviewTTL:     2 * time.Hour,
		RetainDone:    30 * time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// ImportService drives CSV imports through the job state machine:
// Parsing, Deduplicating, Categorizing, AwaitingReview, Committing, Done,
// with Failed reachable from every non-terminal state. Jobs live in memory;
// nothing touches the ledger until Commit.
type ImportService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	preferenceRepo  domain.PreferenceRepository
	ownerLock       *OwnerLock
	config          ImportServiceConfig

	archive        storage.StatementArchive
	eventPublisher websocket.EventPublisher
	invalidator    CacheInvalidator

	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.ImportJob

	stopCh  chan struct{}
	doneCh  chan struct{}
	runMu   sync.Mutex
	running bool
}

// NewImportService creates a new ImportService
func NewImportService(
	transactionRepo domain.TransactionRepository,
	categoryRepo domain.CategoryRepository,
	preferenceRepo domain.PreferenceRepository,
	ownerLock *OwnerLock,
	config ImportServiceConfig,
) *ImportService {
	if config.ReviewTTL <= 0 {
		config.ReviewTTL = 2 * time.Hour
	}
	if config.RetainDone <= 0 {
		config.RetainDone = 30 * time.Minute
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = 5 * time.Minute
	}
	return &ImportService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		preferenceRepo:  preferenceRepo,
		ownerLock:       ownerLock,
		config:          config,
		jobs:            make(map[uuid.UUID]*domain.ImportJob),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *ImportService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStatementArchive sets the raw-statement archive. Archiving is
// best-effort and never fails an import.
func (s *ImportService) SetStatementArchive(archive storage.StatementArchive) {
	s.archive = archive
}

// SetCacheInvalidator sets the read-model cache invalidator
func (s *ImportService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

func (s *ImportService) publishState(job *domain.ImportJob) {
	if s.eventPublisher == nil {
		return
	}
	s.eventPublisher.Publish(job.OwnerID, websocket.ImportJobStateChanged(map[string]interface{}{
		"id":     job.ID.String(),
		"state":  string(job.State),
		"report": job.Report,
	}))
}

// StartImport creates an import job and runs the parse/dedup/categorize
// pipeline on a background worker. The caller polls GetJob until the job
// reaches AwaitingReview, Done or Failed.
func (s *ImportService) StartImport(ownerID uuid.UUID, fileName, profileName string, raw []byte) (*domain.ImportJob, error) {
	if len(raw) == 0 {
		return nil, domain.ErrEmptyImport
	}

	now := time.Now().UTC()
	job := &domain.ImportJob{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		FileName:  fileName,
		State:     domain.ImportStateParsing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	profile := importer.ProfileByName(profileName)
	go s.runPipeline(job.ID, ownerID, profile, raw)

	return s.snapshot(job), nil
}

// runPipeline executes Parsing through AwaitingReview while holding the
// owner lock, so rule learning and other imports for the same owner cannot
// interleave. The lock is released once the preview is awaiting review.
func (s *ImportService) runPipeline(jobID uuid.UUID, ownerID uuid.UUID, profile importer.Profile, raw []byte) {
	s.archiveStatement(ownerID, jobID, raw)

	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	// Parsing
	records, report, err := importer.NewNormalizer(profile).Normalize(raw)
	if err != nil {
		s.fail(jobID, err)
		return
	}
	if report.RowsParsed == 0 {
		s.fail(jobID, domain.ErrEmptyImport)
		return
	}

	// Deduplicating
	if !s.transition(jobID, domain.ImportStateDeduplicating, func(job *domain.ImportJob) {
		job.Report.RowsTotal = report.RowsTotal
		job.Report.RowsParsed = report.RowsParsed
		job.Report.RowsSkipped = report.Skipped
	}) {
		return
	}

	fingerprints := make([]string, 0, len(records))
	for _, record := range records {
		fingerprints = append(fingerprints, domain.Fingerprint(ownerID, record.Date, record.Amount, record.Counterparty, record.Description))
	}
	existing, err := s.transactionRepo.FindByFingerprints(ownerID, fingerprints)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	seen := make(map[string]struct{}, len(fingerprints))
	rows := make([]*domain.ImportRow, 0, len(records))
	duplicates := 0
	for i, record := range records {
		fp := fingerprints[i]
		if _, dup := existing[fp]; dup {
			duplicates++
			continue
		}
		// A repeat within the same file is also a duplicate
		if _, dup := seen[fp]; dup {
			duplicates++
			continue
		}
		seen[fp] = struct{}{}
		rows = append(rows, &domain.ImportRow{
			Index:         i + 1,
			Date:          record.Date,
			Amount:        record.Amount,
			Counterparty:  record.Counterparty,
			Description:   record.Description,
			AccountNumber: record.AccountNumber,
			Fingerprint:   fp,
		})
	}

	// Categorizing
	if !s.transition(jobID, domain.ImportStateCategorizing, func(job *domain.ImportJob) {
		job.Report.NewCount = len(rows)
		job.Report.DuplicateCount = duplicates
	}) {
		return
	}

	ruleset, err := s.loadRuleset(ownerID)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	unclassified := 0
	for _, row := range rows {
		result := ruleset.Classify(&domain.Transaction{
			Amount:       row.Amount,
			Counterparty: row.Counterparty,
			Description:  row.Description,
		})
		row.CategoryID = result.CategoryID
		row.MatchedRule = result.MatchedRule
		if result.CategoryID == nil {
			unclassified++
		}
	}

	// AwaitingReview; no persistence has happened yet
	s.transition(jobID, domain.ImportStateAwaitingReview, func(job *domain.ImportJob) {
		job.Rows = rows
		job.Report.UnclassifiedCount = unclassified
	})
}

func (s *ImportService) loadRuleset(ownerID uuid.UUID) (*Ruleset, error) {
	categories, err := s.categoryRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	incomeCategory := domain.DefaultIncomeCategory
	pref, err := s.preferenceRepo.Get(ownerID)
	if err == nil {
		incomeCategory = pref.IncomeCategory
	} else if err != domain.ErrPreferenceNotFound {
		return nil, err
	}
	return NewRuleset(categories, incomeCategory), nil
}

func (s *ImportService) archiveStatement(ownerID uuid.UUID, jobID uuid.UUID, raw []byte) {
	if s.archive == nil {
		return
	}
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	fileName := ""
	if ok {
		fileName = job.FileName
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	path, err := s.archive.Archive(ctx, ownerID, fileName, raw)
	if err != nil {
		log.Warn().Err(err).
			Str("owner_id", ownerID.String()).
			Str("job_id", jobID.String()).
			Msg("failed to archive statement")
		return
	}

	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.ArchivePath = path
	}
	s.mu.Unlock()
	log.Debug().Str("path", path).Msg("archived statement")
}

// discardArchivedStatement removes the raw upload of a cancelled job from
// the archive. Best effort, like archiving itself.
func (s *ImportService) discardArchivedStatement(objectPath string) {
	if s.archive == nil || objectPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.archive.Delete(ctx, objectPath); err != nil {
		log.Warn().Err(err).
			Str("path", objectPath).
			Msg("failed to delete archived statement")
	}
}

// statementURLExpiry bounds how long a presigned statement link stays valid.
const statementURLExpiry = 15 * time.Minute

// StatementURL returns a short-lived presigned link to the raw statement a
// job was created from.
func (s *ImportService) StatementURL(ownerID uuid.UUID, jobID uuid.UUID) (string, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		s.mu.Unlock()
		return "", domain.ErrImportJobNotFound
	}
	objectPath := job.ArchivePath
	s.mu.Unlock()

	if s.archive == nil || objectPath == "" {
		return "", domain.ErrStatementNotArchived
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.archive.GeneratePresignedURL(ctx, objectPath, statementURLExpiry)
}

// GetJob returns a snapshot of the job for polling callers
func (s *ImportService) GetJob(ownerID uuid.UUID, jobID uuid.UUID) (*domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrImportJobNotFound
	}
	return s.snapshotLocked(job), nil
}

// SetRowCategory overrides the proposed category of one preview row before
// commit. A nil categoryID leaves the row unclassified.
func (s *ImportService) SetRowCategory(ownerID uuid.UUID, jobID uuid.UUID, rowIndex int, categoryID *uuid.UUID) (*domain.ImportJob, error) {
	if categoryID != nil {
		if _, err := s.categoryRepo.GetByID(ownerID, *categoryID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrImportJobNotFound
	}
	if job.State != domain.ImportStateAwaitingReview {
		return nil, domain.ErrJobNotReviewable
	}

	found := false
	unclassified := 0
	for _, row := range job.Rows {
		if row.Index == rowIndex {
			row.CategoryID = categoryID
			row.MatchedRule = nil
			found = true
		}
		if row.CategoryID == nil && row.Index != rowIndex {
			unclassified++
		}
	}
	if !found {
		return nil, domain.ErrRowNotFound
	}
	if categoryID == nil {
		unclassified++
	}
	job.Report.UnclassifiedCount = unclassified
	job.UpdatedAt = time.Now().UTC()

	return s.snapshotLocked(job), nil
}

// Commit persists the reviewed rows as one all-or-nothing batch. Duplicates
// are re-checked under the owner lock; rows that became duplicates since the
// preview are dropped, not errors.
func (s *ImportService) Commit(ownerID uuid.UUID, jobID uuid.UUID) (*domain.ImportJob, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		s.mu.Unlock()
		return nil, domain.ErrImportJobNotFound
	}
	if job.State != domain.ImportStateAwaitingReview {
		s.mu.Unlock()
		return nil, domain.ErrJobNotReviewable
	}
	job.State = domain.ImportStateCommitting
	job.UpdatedAt = time.Now().UTC()
	rows := job.Rows
	committing := s.snapshotLocked(job)
	s.mu.Unlock()
	s.publishState(committing)

	s.ownerLock.Lock(ownerID)
	defer s.ownerLock.Unlock(ownerID)

	fingerprints := make([]string, 0, len(rows))
	for _, row := range rows {
		fingerprints = append(fingerprints, row.Fingerprint)
	}
	existing, err := s.transactionRepo.FindByFingerprints(ownerID, fingerprints)
	if err != nil {
		s.fail(jobID, err)
		return nil, err
	}

	lateDuplicates := 0
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		if _, dup := existing[row.Fingerprint]; dup {
			lateDuplicates++
			continue
		}
		transactions = append(transactions, &domain.Transaction{
			OwnerID:       ownerID,
			Date:          row.Date,
			Amount:        row.Amount,
			Counterparty:  row.Counterparty,
			Description:   row.Description,
			AccountNumber: row.AccountNumber,
			CategoryID:    row.CategoryID,
			Fingerprint:   row.Fingerprint,
		})
	}

	if len(transactions) > 0 {
		if err := s.transactionRepo.InsertBatch(ownerID, transactions); err != nil {
			commitErr := &domain.StorageCommitError{Cause: err}
			s.fail(jobID, commitErr)
			return nil, commitErr
		}
	}

	s.mu.Lock()
	job.State = domain.ImportStateDone
	job.CommittedCount = len(transactions)
	job.Report.DuplicateCount += lateDuplicates
	job.Report.NewCount = len(transactions)
	job.Rows = nil
	job.UpdatedAt = time.Now().UTC()
	snapshot := s.snapshotLocked(job)
	s.mu.Unlock()

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("job_id", jobID.String()).
		Int("committed", snapshot.CommittedCount).
		Int("duplicates", snapshot.Report.DuplicateCount).
		Msg("import committed")

	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(ownerID)
	}
	s.publishState(snapshot)
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, websocket.LedgerCommitted(map[string]interface{}{
			"jobId":     snapshot.ID.String(),
			"committed": snapshot.CommittedCount,
		}))
	}

	return snapshot, nil
}

// Cancel discards a preview that has not started committing. The job is
// removed from the store; nothing was persisted.
func (s *ImportService) Cancel(ownerID uuid.UUID, jobID uuid.UUID) error {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		s.mu.Unlock()
		return domain.ErrImportJobNotFound
	}
	if job.State != domain.ImportStateAwaitingReview {
		s.mu.Unlock()
		return domain.ErrJobNotCancellable
	}
	delete(s.jobs, jobID)
	archivePath := job.ArchivePath
	s.mu.Unlock()

	go s.discardArchivedStatement(archivePath)
	return nil
}

// transition moves the job to the next state and applies mutate under the
// store lock. It returns false when the job disappeared (cancelled).
func (s *ImportService) transition(jobID uuid.UUID, state domain.ImportState, mutate func(*domain.ImportJob)) bool {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	job.State = state
	job.UpdatedAt = time.Now().UTC()
	if mutate != nil {
		mutate(job)
	}
	snapshot := s.snapshotLocked(job)
	s.mu.Unlock()

	s.publishState(snapshot)
	return true
}

func (s *ImportService) fail(jobID uuid.UUID, cause error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return
	}
	job.State = domain.ImportStateFailed
	job.FailureReason = cause.Error()
	job.Rows = nil
	job.UpdatedAt = time.Now().UTC()
	snapshot := s.snapshotLocked(job)
	s.mu.Unlock()

	log.Warn().Err(cause).
		Str("job_id", jobID.String()).
		Msg("import job failed")
	s.publishState(snapshot)
}

func (s *ImportService) snapshot(job *domain.ImportJob) *domain.ImportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(job)
}

// snapshotLocked copies the job so callers never observe mid-pipeline
// mutation. Rows are copied by value; the skipped-row list is immutable
// after parsing.
func (s *ImportService) snapshotLocked(job *domain.ImportJob) *domain.ImportJob {
	copied := *job
	if job.Rows != nil {
		copied.Rows = make([]*domain.ImportRow, len(job.Rows))
		for i, row := range job.Rows {
			r := *row
			copied.Rows[i] = &r
		}
	}
	return &copied
}

// Start launches the background sweep that prunes expired jobs
func (s *ImportService) Start(ctx context.Context) {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	s.running = true
	s.runMu.Unlock()

	log.Info().
		Dur("sweep_interval", s.config.SweepInterval).
		Dur("review_ttl", s.config.ReviewTTL).
		Msg("starting import job sweeper")

	go s.run(ctx)
}

// Stop gracefully stops the sweeper
func (s *ImportService) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	s.runMu.Unlock()

	close(s.stopCh)
	<-s.doneCh
}

func (s *ImportService) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep drops terminal jobs past retention and previews nobody reviewed
func (s *ImportService) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		age := now.Sub(job.UpdatedAt)
		switch {
		case job.State.Terminal() && age > s.config.RetainDone:
			delete(s.jobs, id)
		case job.State == domain.ImportStateAwaitingReview && age > s.config.ReviewTTL:
			delete(s.jobs, id)
		}
	}
}
