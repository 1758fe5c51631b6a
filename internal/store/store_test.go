package store

import (
	"errors"
	"testing"
	"time"

	"github.com/vthunder/dayplan/internal/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTemplate(name string) *schedule.Template {
	return &schedule.Template{
		Name:            name,
		Category:        "routine",
		DurationMinutes: 30,
		Recurrence:      "daily",
		Enabled:         true,
	}
}

func testInstance(t *testing.T, s *Store, templateID int64, start, end string) *schedule.Instance {
	t.Helper()
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	st, err := time.ParseInLocation("2006-01-02 15:04", "2026-03-04 "+start, time.Local)
	if err != nil {
		t.Fatalf("bad start %q: %v", start, err)
	}
	en, err := time.ParseInLocation("2006-01-02 15:04", "2026-03-04 "+end, time.Local)
	if err != nil {
		t.Fatalf("bad end %q: %v", end, err)
	}
	insts := []schedule.Instance{{
		TemplateID: templateID,
		Date:       date,
		Start:      st,
		End:        en,
		Status:     schedule.StatusPending,
	}}
	if err := s.InsertInstances(insts); err != nil {
		t.Fatalf("failed to insert instance: %v", err)
	}
	return &insts[0]
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("breakfast")
	tmpl.PreferredWindow = "08:00-10:00"
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatalf("failed to add template: %v", err)
	}
	if tmpl.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if tmpl.AlertStyle != schedule.AlertVisualThenAlarm {
		t.Errorf("expected default alert style, got %q", tmpl.AlertStyle)
	}

	got, err := s.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}
	if got.Name != "breakfast" || got.PreferredWindow != "08:00-10:00" || !got.Enabled {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	got.DurationMinutes = 45
	got.Recurrence = "weekdays"
	if err := s.UpdateTemplate(got); err != nil {
		t.Fatalf("failed to update template: %v", err)
	}
	again, err := s.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatalf("failed to re-get template: %v", err)
	}
	if again.DurationMinutes != 45 || again.Recurrence != "weekdays" {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := s.DisableTemplate(tmpl.ID); err != nil {
		t.Fatalf("failed to disable template: %v", err)
	}
	disabled, err := s.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatalf("disabled template should still exist: %v", err)
	}
	if disabled.Enabled {
		t.Error("expected template disabled")
	}
}

func TestTemplateNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetTemplate(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateTemplate(&schedule.Template{ID: 999, Name: "x", DurationMinutes: 5}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DisableTemplate(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListTemplates(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"lunch", "breakfast"} {
		if err := s.AddTemplate(testTemplate(name)); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
	}
	off := testTemplate("archived")
	if err := s.AddTemplate(off); err != nil {
		t.Fatal(err)
	}
	if err := s.DisableTemplate(off.ID); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListTemplates(false)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 3 || all[0].Name != "archived" || all[1].Name != "breakfast" {
		t.Errorf("expected 3 templates ordered by name, got %+v", all)
	}

	enabled, err := s.ListTemplates(true)
	if err != nil {
		t.Fatalf("failed to list enabled: %v", err)
	}
	if len(enabled) != 2 {
		t.Errorf("expected 2 enabled templates, got %d", len(enabled))
	}
}

func TestInsertInstancesIgnoresDuplicates(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("breakfast")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	first := testInstance(t, s, tmpl.ID, "09:00", "09:30")

	// A second materialization of the same (template, date) must be a no-op,
	// and the skipped row must not pick up a stale insert id.
	dup := testInstance(t, s, tmpl.ID, "10:00", "10:30")
	if dup.ID != 0 {
		t.Errorf("skipped duplicate assigned id %d", dup.ID)
	}
	if first.ID == 0 {
		t.Error("original insert missing its id")
	}

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	insts, err := s.InstancesForDate(day)
	if err != nil {
		t.Fatalf("failed to read instances: %v", err)
	}
	if len(insts) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(insts))
	}
	if insts[0].Start.Hour() != 9 {
		t.Errorf("original placement should survive, got start %s", insts[0].Start.Format("15:04"))
	}
}

func TestInstanceRoundTrip(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("exercise")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "09:30", "10:15")

	got, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatalf("failed to get instance: %v", err)
	}
	if !got.Start.Equal(inst.Start) || !got.End.Equal(inst.End) {
		t.Errorf("times mismatch: %s-%s", got.Start.Format("15:04"), got.End.Format("15:04"))
	}
	if got.Status != schedule.StatusPending || got.ActualStart != nil {
		t.Errorf("unexpected state: %+v", got)
	}
	if got.Date.Hour() != 0 || got.Date.Day() != 4 {
		t.Errorf("date should be local midnight, got %s", got.Date)
	}

	got.Status = schedule.StatusPaused
	if err := s.UpdateInstance(got); err != nil {
		t.Fatalf("failed to update instance: %v", err)
	}
	again, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != schedule.StatusPaused {
		t.Errorf("status not persisted: %s", again.Status)
	}

	if _, err := s.GetInstance(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInstanceRoundTrip_LateEvening(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("wind down")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	// 23:59 is the latest representable planned end
	inst := testInstance(t, s, tmpl.ID, "23:00", "23:59")

	got, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Start.Before(got.End) {
		t.Fatalf("start/end ordering broken: %s-%s",
			got.Start.Format("15:04"), got.End.Format("15:04"))
	}
	if got.End.Format("15:04") != "23:59" || got.End.Day() != got.Start.Day() {
		t.Errorf("end read back as %s", got.End.Format("2006-01-02 15:04"))
	}
}

func TestMarkActualStartWriteOnce(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("meds")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "09:00", "09:30")

	first := time.Date(2026, 3, 4, 9, 1, 0, 0, time.Local)
	if err := s.MarkActualStart(inst.ID, first); err != nil {
		t.Fatalf("failed to mark actual start: %v", err)
	}
	// Second observation must not move the stamp
	if err := s.MarkActualStart(inst.ID, first.Add(5*time.Minute)); err != nil {
		t.Fatalf("second mark failed: %v", err)
	}

	got, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ActualStart == nil || !got.ActualStart.Equal(first) {
		t.Errorf("expected first stamp %s preserved, got %v", first, got.ActualStart)
	}
}

func TestCreateAdHoc(t *testing.T) {
	s := newTestStore(t)

	tmpl := &schedule.Template{
		Name:            "dentist",
		Category:        "appointments",
		DurationMinutes: 60,
		AlertStyle:      schedule.AlertVisualThenAlarm,
	}
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	inst := &schedule.Instance{
		Date:   date,
		Start:  date.Add(14 * time.Hour),
		End:    date.Add(15 * time.Hour),
		Status: schedule.StatusPending,
	}
	if err := s.CreateAdHoc(tmpl, inst); err != nil {
		t.Fatalf("failed to create ad hoc: %v", err)
	}
	if tmpl.ID == 0 || inst.ID == 0 || inst.TemplateID != tmpl.ID {
		t.Fatalf("ids not wired: tmpl=%d inst=%d templateID=%d", tmpl.ID, inst.ID, inst.TemplateID)
	}

	// The backing template is disabled so recurring materialization never
	// picks it up.
	backing, err := s.GetTemplate(tmpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if backing.Enabled {
		t.Error("ad hoc backing template should be disabled")
	}

	enabled, err := s.ListTemplates(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 0 {
		t.Errorf("ad hoc template leaked into enabled list: %+v", enabled)
	}
}

func TestInteractionLifecycle(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("exercise")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "10:00", "10:30")

	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	if err := s.StartInteraction(inst.ID, "task_start", started); err != nil {
		t.Fatalf("failed to start interaction: %v", err)
	}

	open, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if open == nil || !open.Open() {
		t.Fatalf("expected open interaction, got %+v", open)
	}
	if open.AlertType != "task_start" {
		t.Errorf("alert type %q", open.AlertType)
	}

	responded := started.Add(2 * time.Minute)
	if err := s.ApplyAcknowledge(inst.ID, schedule.StageVisual, responded); err != nil {
		t.Fatalf("failed to acknowledge: %v", err)
	}

	resolved, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Open() {
		t.Fatal("interaction should be resolved")
	}
	if resolved.ResponseType != schedule.ResponseAcknowledge || resolved.ResponseStage != schedule.StageVisual {
		t.Errorf("got %s/%s", resolved.ResponseType, resolved.ResponseStage)
	}
	if resolved.RespondedAt == nil {
		t.Error("expected responded_at stamp")
	}

	// Acknowledging again is a no-op on the resolved row
	if err := s.ApplyAcknowledge(inst.ID, schedule.StageAlarm, responded.Add(time.Minute)); err != nil {
		t.Fatalf("repeat acknowledge: %v", err)
	}
	still, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if still.ResponseStage != schedule.StageVisual {
		t.Errorf("resolved interaction was overwritten: %s", still.ResponseStage)
	}
}

func TestAcknowledgeWithoutStartSynthesizes(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("meds")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "09:00", "09:30")

	now := time.Date(2026, 3, 4, 9, 5, 0, 0, time.Local)
	if err := s.ApplyAcknowledge(inst.ID, schedule.StageVisual, now); err != nil {
		t.Fatalf("failed to acknowledge: %v", err)
	}

	ia, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ia == nil {
		t.Fatal("expected a synthesized interaction")
	}
	if ia.Open() || ia.ResponseType != schedule.ResponseAcknowledge || ia.AlertType != "task_start" {
		t.Errorf("synthesized row wrong: %+v", ia)
	}
}

func TestApplySnooze(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("exercise")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "10:00", "10:30")

	now := time.Date(2026, 3, 4, 10, 10, 0, 0, time.Local)
	if err := s.StartInteraction(inst.ID, "task_start", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	inst.End = inst.End.Add(15 * time.Minute)
	if err := s.ApplySnooze(inst, 15, schedule.StageAlarm, now); err != nil {
		t.Fatalf("failed to snooze: %v", err)
	}

	got, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.End.Hour() != 10 || got.End.Minute() != 45 {
		t.Errorf("planned end not extended, got %s", got.End.Format("15:04"))
	}

	ia, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ia.ResponseType != schedule.ResponseSnooze || ia.ResponseStage != schedule.StageAlarm {
		t.Errorf("got %s/%s", ia.ResponseType, ia.ResponseStage)
	}
}

func TestSweepStale(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("exercise")
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "10:00", "10:30")

	now := time.Date(2026, 3, 4, 10, 11, 0, 0, time.Local)
	stale := now.Add(-11 * time.Minute)
	fresh := now.Add(-2 * time.Minute)
	if err := s.StartInteraction(inst.ID, "task_start", stale); err != nil {
		t.Fatal(err)
	}
	if err := s.StartInteraction(inst.ID, "task_start", fresh); err != nil {
		t.Fatal(err)
	}

	n, err := s.SweepStale(now.Add(-10*time.Minute), now)
	if err != nil {
		t.Fatalf("failed to sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}

	// Most recent interaction is the fresh one and must still be open
	latest, err := s.LatestInteraction(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !latest.Open() {
		t.Error("fresh interaction should survive the sweep")
	}

	// Sweeping again finds nothing
	n, err = s.SweepStale(now.Add(-10*time.Minute), now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second sweep closed %d rows", n)
	}
}

func TestRecentInteractions(t *testing.T) {
	s := newTestStore(t)

	tmpl := testTemplate("exercise")
	tmpl.Category = "health"
	if err := s.AddTemplate(tmpl); err != nil {
		t.Fatal(err)
	}
	inst := testInstance(t, s, tmpl.ID, "10:00", "10:30")

	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		if err := s.StartInteraction(inst.ID, "task_start", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	items, err := s.RecentInteractions(2)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Most recent first
	if !items[0].StartedAt.After(items[1].StartedAt) {
		t.Errorf("history not newest-first: %s then %s", items[0].StartedAt, items[1].StartedAt)
	}
	if items[0].TaskName != "exercise" || items[0].Category != "health" {
		t.Errorf("join fields wrong: %+v", items[0])
	}

	// Out-of-range limits are clamped rather than rejected
	if _, err := s.RecentInteractions(0); err != nil {
		t.Errorf("limit 0 should clamp: %v", err)
	}
	if _, err := s.RecentInteractions(1000); err != nil {
		t.Errorf("limit 1000 should clamp: %v", err)
	}
}

func TestAlarmConfig(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.GetAlarmConfig()
	if err != nil {
		t.Fatalf("failed to get alarm config: %v", err)
	}
	if cfg.Sound != "beep" || cfg.VolumePercent != 12 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	sound := "chime"
	volume := 150
	cfg, err = s.UpdateAlarmConfig(&sound, &volume)
	if err != nil {
		t.Fatalf("failed to update alarm config: %v", err)
	}
	if cfg.Sound != "chime" || cfg.VolumePercent != 100 {
		t.Errorf("expected chime at clamped 100, got %+v", cfg)
	}

	bad := "klaxon"
	if _, err := s.UpdateAlarmConfig(&bad, nil); err == nil {
		t.Error("expected rejection of unknown sound")
	}

	// Partial update: volume only
	low := -5
	cfg, err = s.UpdateAlarmConfig(nil, &low)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sound != "chime" || cfg.VolumePercent != 0 {
		t.Errorf("expected chime at clamped 0, got %+v", cfg)
	}
}
