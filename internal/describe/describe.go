package describe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursemerge/internal/course"
	"coursemerge/internal/logging"
	"coursemerge/internal/services/llm"
)

// Status of a session's enrichment task.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusNotFound  Status = "not_found"
)

// ProgressEvent reports coarse task progress to the caller.
type ProgressEvent struct {
	Stage     string
	Message   string
	Progress  int
	Completed int
	Total     int
}

// ItemEvent reports one finished package description.
type ItemEvent struct {
	PackageID   string
	Description string
	Fallback    bool
	Completed   int
	Total       int
}

// Generator produces a course description from sampled content. The LLM
// client satisfies this; tests substitute their own.
type Generator interface {
	DescribeCourse(ctx context.Context, input llm.CourseInput) (string, error)
}

// Options tunes pipeline behavior; zero values select the defaults.
type Options struct {
	// MinExistingLength is the length above which an authored metadata
	// description is kept verbatim without calling the generator.
	MinExistingLength int
	// ItemDelay paces successive generator requests.
	ItemDelay time.Duration
}

// DefaultMinExistingLength is the authored-description threshold.
const DefaultMinExistingLength = 30

// minUsefulResult rejects generator output too short to be a description.
const minUsefulResult = 10

type task struct {
	id    string
	total int

	// mu guards everything mutated while the task goroutine runs.
	mu         sync.Mutex
	status     Status
	errMessage string
	completed  int
	results    map[string]string
	cancelled  bool
}

func (t *task) cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

func (t *task) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *task) setStatus(status Status) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

func (t *task) fail(message string) {
	t.mu.Lock()
	t.status = StatusFailed
	t.errMessage = message
	t.mu.Unlock()
}

func (t *task) record(packageID, description string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[packageID] = description
	t.completed++
	return t.completed
}

func (t *task) completedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Pipeline runs one cancellable background enrichment task per session.
type Pipeline struct {
	generator Generator
	opts      Options
	logger    *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

// NewPipeline constructs a pipeline. A nil generator means every package gets
// a rule-based description.
func NewPipeline(generator Generator, opts Options, logger *slog.Logger) *Pipeline {
	if opts.MinExistingLength <= 0 {
		opts.MinExistingLength = DefaultMinExistingLength
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		generator: generator,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "describe"),
		tasks:     make(map[string]*task),
	}
}

// Start launches enrichment for the session's packages and returns the task
// id. A session's prior task, if any, is cancelled synchronously first.
// Callbacks may be nil. Events are delivered from the task's goroutine.
func (p *Pipeline) Start(sessionID string, packages []*course.Package, onProgress func(ProgressEvent), onItem func(ItemEvent)) string {
	included := make([]*course.Package, 0, len(packages))
	for _, pkg := range packages {
		if pkg != nil && !pkg.Excluded() {
			included = append(included, pkg)
		}
	}

	t := &task{
		id:      uuid.NewString(),
		status:  StatusRunning,
		total:   len(included),
		results: make(map[string]string, len(included)),
	}

	p.mu.Lock()
	if prior, ok := p.tasks[sessionID]; ok {
		prior.cancel()
	}
	p.tasks[sessionID] = t
	p.mu.Unlock()

	go p.run(sessionID, t, included, onProgress, onItem)
	return t.id
}

func (p *Pipeline) run(sessionID string, t *task, packages []*course.Package, onProgress func(ProgressEvent), onItem func(ItemEvent)) {
	logger := p.logger.With(logging.String(logging.FieldSession, sessionID))

	emit := func(event ProgressEvent) {
		event.Completed = t.completedCount()
		event.Total = t.total
		if onProgress != nil {
			onProgress(event)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("enrichment task failed: %v", r)
			t.fail(message)
			emit(ProgressEvent{Stage: "error", Message: message})
			logger.Error("enrichment task panicked", logging.Any("panic", r))
		}
	}()

	emit(ProgressEvent{Stage: "started", Message: fmt.Sprintf("describing %d packages", t.total)})
	logger.Info("enrichment started", logging.Int("total", t.total))

	for i, pkg := range packages {
		if t.isCancelled() {
			t.setStatus(StatusCancelled)
			emit(ProgressEvent{Stage: "cancelled", Message: "enrichment cancelled"})
			logger.Info("enrichment cancelled", logging.Int("completed", t.completedCount()))
			return
		}

		progress := 0
		if t.total > 0 {
			progress = i * 100 / t.total
		}
		emit(ProgressEvent{
			Stage:    "progress",
			Message:  fmt.Sprintf("describing %s", pkg.DisplayTitle()),
			Progress: progress,
		})

		description, fallback := p.describeOne(pkg)
		completed := t.record(pkg.Identifier, description)

		if onItem != nil {
			onItem(ItemEvent{
				PackageID:   pkg.Identifier,
				Description: description,
				Fallback:    fallback,
				Completed:   completed,
				Total:       t.total,
			})
		}

		if p.opts.ItemDelay > 0 && i < len(packages)-1 {
			time.Sleep(p.opts.ItemDelay)
		}
	}

	t.setStatus(StatusCompleted)
	emit(ProgressEvent{Stage: "completed", Message: "all descriptions ready", Progress: 100})
	logger.Info("enrichment completed", logging.Int("total", t.total))
}

// describeOne resolves a single package description: authored metadata wins,
// then the generator, then the rule-based fallback.
func (p *Pipeline) describeOne(pkg *course.Package) (string, bool) {
	if existing := strings.TrimSpace(pkg.Description); len(existing) >= p.opts.MinExistingLength {
		return existing, false
	}

	if p.generator != nil {
		generated, err := p.generator.DescribeCourse(context.Background(), llm.CourseInput{
			Title:               pkg.DisplayTitle(),
			Filename:            pkg.Filename,
			ContentSample:       pkg.ContentSample,
			ExistingDescription: strings.TrimSpace(pkg.Description),
		})
		if err != nil {
			p.logger.Warn("generator failed, using fallback",
				logging.String(logging.FieldPackage, pkg.Identifier),
				logging.Error(err))
		} else if generated = strings.TrimSpace(generated); len(generated) >= minUsefulResult {
			return generated, false
		}
	}

	return FallbackDescription(pkg.DisplayTitle(), pkg.ContentSample), true
}

// Cancel flags the session's active task to stop at the next item boundary.
// It reports whether a running task existed; cancelling twice is harmless.
func (p *Pipeline) Cancel(sessionID string) bool {
	p.mu.Lock()
	t, ok := p.tasks[sessionID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	t.mu.Lock()
	running := t.status == StatusRunning
	t.cancelled = true
	t.mu.Unlock()
	return running
}

// Snapshot is a point-in-time view of a session's task. Error carries the
// failure message when Status is StatusFailed.
type Snapshot struct {
	TaskID    string
	Status    Status
	Error     string
	Completed int
	Total     int
}

// StatusOf returns the session's task state; unknown sessions report
// StatusNotFound rather than an error.
func (p *Pipeline) StatusOf(sessionID string) Snapshot {
	p.mu.Lock()
	t, ok := p.tasks[sessionID]
	p.mu.Unlock()
	if !ok {
		return Snapshot{Status: StatusNotFound}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{TaskID: t.id, Status: t.status, Error: t.errMessage, Completed: t.completed, Total: t.total}
}

// Results returns the descriptions produced so far, keyed by package id.
// Partial results from a cancelled task are included. Unknown sessions yield
// an empty map.
func (p *Pipeline) Results(sessionID string) map[string]string {
	p.mu.Lock()
	t, ok := p.tasks[sessionID]
	p.mu.Unlock()
	if !ok {
		return map[string]string{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.results))
	for id, desc := range t.results {
		out[id] = desc
	}
	return out
}

// Cleanup drops all task state for a session. Safe for unknown sessions; a
// still-running task is cancelled.
func (p *Pipeline) Cleanup(sessionID string) {
	p.mu.Lock()
	t, ok := p.tasks[sessionID]
	delete(p.tasks, sessionID)
	p.mu.Unlock()
	if ok {
		t.cancel()
	}
}
