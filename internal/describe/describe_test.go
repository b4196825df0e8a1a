package describe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"coursemerge/internal/course"
	"coursemerge/internal/services/llm"
)

type stubGenerator struct {
	mu      sync.Mutex
	calls   []llm.CourseInput
	respond func(input llm.CourseInput) (string, error)
}

func (s *stubGenerator) DescribeCourse(_ context.Context, input llm.CourseInput) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, input)
	s.mu.Unlock()
	if s.respond != nil {
		return s.respond(input)
	}
	return "A generated description of " + input.Title + ".", nil
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func waitForStatus(t *testing.T, p *Pipeline, sessionID string, want Status) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := p.StatusOf(sessionID); snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task never reached status %q (last: %+v)", want, p.StatusOf(sessionID))
	return Snapshot{}
}

func TestPipelineCompletes(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, Options{}, nil)

	packages := []*course.Package{
		{Identifier: "PKG-1", Title: "Intro to Go"},
		{Identifier: "PKG-2", Title: "Advanced Go"},
	}

	var mu sync.Mutex
	var stages []string
	var items []ItemEvent
	lastProgress := -1

	taskID := p.Start("session-1", packages,
		func(event ProgressEvent) {
			mu.Lock()
			stages = append(stages, event.Stage)
			lastProgress = event.Progress
			mu.Unlock()
		},
		func(event ItemEvent) {
			mu.Lock()
			items = append(items, event)
			mu.Unlock()
		})
	if taskID == "" {
		t.Fatal("empty task id")
	}

	snap := waitForStatus(t, p, "session-1", StatusCompleted)
	if snap.Completed != 2 || snap.Total != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stages) == 0 || stages[0] != "started" || stages[len(stages)-1] != "completed" {
		t.Errorf("stages = %v", stages)
	}
	if lastProgress != 100 {
		t.Errorf("final progress = %d", lastProgress)
	}
	if len(items) != 2 || items[0].PackageID != "PKG-1" || items[1].PackageID != "PKG-2" {
		t.Errorf("items = %+v", items)
	}
	for _, item := range items {
		if item.Fallback {
			t.Errorf("item %s unexpectedly marked fallback", item.PackageID)
		}
	}

	results := p.Results("session-1")
	if len(results) != 2 || !strings.Contains(results["PKG-1"], "Intro to Go") {
		t.Errorf("results = %v", results)
	}
}

func TestPipelineKeepsAuthoredDescriptions(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, Options{}, nil)

	authored := "A carefully authored description that easily clears the threshold."
	packages := []*course.Package{{Identifier: "PKG-1", Title: "Anything", Description: authored}}

	p.Start("session-1", packages, nil, nil)
	waitForStatus(t, p, "session-1", StatusCompleted)

	if gen.callCount() != 0 {
		t.Errorf("generator called %d times for authored description", gen.callCount())
	}
	if got := p.Results("session-1")["PKG-1"]; got != authored {
		t.Errorf("description = %q", got)
	}
}

func TestPipelineFallsBackOnGeneratorFailure(t *testing.T) {
	gen := &stubGenerator{respond: func(llm.CourseInput) (string, error) {
		return "", errors.New("upstream down")
	}}
	p := NewPipeline(gen, Options{}, nil)

	packages := []*course.Package{{
		Identifier:    "PKG-1",
		Title:         "Python Programming Basics",
		ContentSample: "take the quiz at the end of each chapter",
	}}

	var items []ItemEvent
	var mu sync.Mutex
	p.Start("session-1", packages, nil, func(event ItemEvent) {
		mu.Lock()
		items = append(items, event)
		mu.Unlock()
	})
	waitForStatus(t, p, "session-1", StatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	if len(items) != 1 || !items[0].Fallback {
		t.Fatalf("items = %+v", items)
	}
	desc := items[0].Description
	if !strings.Contains(desc, "technical course") || !strings.Contains(desc, "interactive assessments") {
		t.Errorf("fallback description = %q", desc)
	}
}

func TestPipelineFailureEmitsErrorEvent(t *testing.T) {
	gen := &stubGenerator{respond: func(llm.CourseInput) (string, error) {
		panic("generator blew up")
	}}
	p := NewPipeline(gen, Options{}, nil)

	var mu sync.Mutex
	var events []ProgressEvent
	p.Start("session-1", []*course.Package{{Identifier: "PKG-1", Title: "Course"}},
		func(event ProgressEvent) {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
		}, nil)

	snap := waitForStatus(t, p, "session-1", StatusFailed)
	if !strings.Contains(snap.Error, "generator blew up") {
		t.Errorf("snapshot error = %q", snap.Error)
	}

	mu.Lock()
	defer mu.Unlock()
	last := events[len(events)-1]
	if last.Stage != "error" || !strings.Contains(last.Message, "generator blew up") {
		t.Errorf("final event = %+v", last)
	}
}

func TestPipelinePassesExistingDescriptionToGenerator(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPipeline(gen, Options{}, nil)

	// Short enough to need the generator, but still context worth forwarding.
	packages := []*course.Package{{Identifier: "PKG-1", Title: "Forklifts", Description: "Forklift basics."}}
	p.Start("session-1", packages, nil, nil)
	waitForStatus(t, p, "session-1", StatusCompleted)

	gen.mu.Lock()
	defer gen.mu.Unlock()
	if len(gen.calls) != 1 || gen.calls[0].ExistingDescription != "Forklift basics." {
		t.Errorf("calls = %+v", gen.calls)
	}
}

func TestPipelineRejectsTooShortGeneratorOutput(t *testing.T) {
	gen := &stubGenerator{respond: func(llm.CourseInput) (string, error) {
		return "ok", nil
	}}
	p := NewPipeline(gen, Options{}, nil)

	p.Start("session-1", []*course.Package{{Identifier: "PKG-1", Title: "Gardening"}}, nil, nil)
	waitForStatus(t, p, "session-1", StatusCompleted)

	if got := p.Results("session-1")["PKG-1"]; got == "ok" || got == "" {
		t.Errorf("too-short generator output should fall back, got %q", got)
	}
}

func TestPipelineFiltersExcludedPackages(t *testing.T) {
	p := NewPipeline(nil, Options{}, nil)
	packages := []*course.Package{
		{Identifier: "PKG-1", Title: "Valid Course"},
		{Identifier: "PKG-2", Title: "Broken", Error: "package has no imsmanifest.xml at its root"},
	}

	p.Start("session-1", packages, nil, nil)
	snap := waitForStatus(t, p, "session-1", StatusCompleted)

	if snap.Total != 1 || snap.Completed != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, ok := p.Results("session-1")["PKG-2"]; ok {
		t.Error("excluded package received a description")
	}
}

func TestPipelineCancelBetweenItems(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	gen := &stubGenerator{respond: func(input llm.CourseInput) (string, error) {
		if input.Title == "First Course" {
			close(firstStarted)
			<-release
		}
		return "A generated description of " + input.Title + ".", nil
	}}
	p := NewPipeline(gen, Options{}, nil)

	packages := []*course.Package{
		{Identifier: "PKG-1", Title: "First Course"},
		{Identifier: "PKG-2", Title: "Second Course"},
	}
	p.Start("session-1", packages, nil, nil)

	<-firstStarted
	if !p.Cancel("session-1") {
		t.Fatal("cancel reported no running task")
	}
	close(release)

	snap := waitForStatus(t, p, "session-1", StatusCancelled)
	if snap.Completed != 1 {
		t.Errorf("completed = %d, want 1", snap.Completed)
	}

	// Partial results survive cancellation.
	results := p.Results("session-1")
	if _, ok := results["PKG-1"]; !ok {
		t.Errorf("results = %v, want PKG-1 retained", results)
	}
	if _, ok := results["PKG-2"]; ok {
		t.Error("cancelled task produced a result for the second package")
	}
}

func TestPipelineCancelIdempotent(t *testing.T) {
	p := NewPipeline(nil, Options{}, nil)
	if p.Cancel("nope") {
		t.Error("cancel of unknown session reported true")
	}

	p.Start("session-1", []*course.Package{{Identifier: "PKG-1", Title: "Course"}}, nil, nil)
	waitForStatus(t, p, "session-1", StatusCompleted)
	if p.Cancel("session-1") {
		t.Error("cancel of finished task reported a running task")
	}
}

func TestPipelineStartReplacesPriorTask(t *testing.T) {
	p := NewPipeline(nil, Options{}, nil)

	first := p.Start("session-1", []*course.Package{{Identifier: "PKG-1", Title: "Course"}}, nil, nil)
	second := p.Start("session-1", []*course.Package{{Identifier: "PKG-2", Title: "Other"}}, nil, nil)
	if first == second {
		t.Fatal("restart reused task id")
	}

	snap := waitForStatus(t, p, "session-1", StatusCompleted)
	if snap.TaskID != second {
		t.Errorf("status tracks task %q, want %q", snap.TaskID, second)
	}
	results := p.Results("session-1")
	if _, ok := results["PKG-2"]; !ok {
		t.Errorf("results = %v", results)
	}
}

func TestPipelineUnknownSessionReads(t *testing.T) {
	p := NewPipeline(nil, Options{}, nil)
	if snap := p.StatusOf("ghost"); snap.Status != StatusNotFound {
		t.Errorf("status = %+v", snap)
	}
	if results := p.Results("ghost"); len(results) != 0 {
		t.Errorf("results = %v", results)
	}
	p.Cleanup("ghost")
}

func TestPipelineCleanup(t *testing.T) {
	p := NewPipeline(nil, Options{}, nil)
	p.Start("session-1", []*course.Package{{Identifier: "PKG-1", Title: "Course"}}, nil, nil)
	waitForStatus(t, p, "session-1", StatusCompleted)

	p.Cleanup("session-1")
	if snap := p.StatusOf("session-1"); snap.Status != StatusNotFound {
		t.Errorf("status after cleanup = %+v", snap)
	}
}

func TestFallbackDescription(t *testing.T) {
	cases := []struct {
		name   string
		title  string
		sample string
		wants  []string
	}{
		{
			name:  "programming bucket",
			title: "JavaScript for Beginners",
			wants: []string{"technical course", "JavaScript for Beginners"},
		},
		{
			name:  "business bucket",
			title: "Leadership Essentials",
			wants: []string{"professional development", "Leadership Essentials"},
		},
		{
			name:  "academic bucket",
			title: "World History 101",
			wants: []string{"academic course", "World History 101"},
		},
		{
			name:  "health bucket",
			title: "First Aid at Work.zip",
			wants: []string{"health and safety", "First Aid at Work"},
		},
		{
			name:  "generic",
			title: "Underwater Basket Weaving",
			wants: []string{"learning module", "Underwater Basket Weaving"},
		},
		{
			name:   "sample qualifiers",
			title:  "Safety Course",
			sample: "watch the video then complete the knowledge check",
			wants:  []string{"Includes interactive assessments.", "Features video content."},
		},
		{
			name:  "empty title",
			title: "   ",
			wants: []string{"this course"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FallbackDescription(tc.title, tc.sample)
			for _, want := range tc.wants {
				if !strings.Contains(got, want) {
					t.Errorf("FallbackDescription(%q) = %q, missing %q", tc.title, got, want)
				}
			}
		})
	}
}
