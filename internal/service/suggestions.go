package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"storyline/internal/contextutil"
	"storyline/internal/events"
	"storyline/internal/metrics"
	"storyline/internal/suggest"
	"storyline/internal/timeline"
)

const (
	ratingAccepted = 1.0
	ratingRejected = 0.0
)

// Suggestion returns the continuation offered for the active scene.
func (w *Workspace) Suggestion() (suggest.Suggestion, error) {
	var s suggest.Suggestion
	err := w.locked(func() error {
		id, err := w.activeID()
		if err != nil {
			return err
		}
		pending, ok := w.pipeline.Pending(id)
		if !ok {
			return fmt.Errorf("suggestion for scene %s: %w", id, ErrNotFound)
		}
		s = pending
		return nil
	})
	return s, err
}

// AcceptSuggestion appends the offered continuation to the active scene,
// adds the registered characters the combined text mentions to its refs and
// reports positive feedback.
func (w *Workspace) AcceptSuggestion(ctx context.Context) (timeline.Scene, error) {
	var sc timeline.Scene
	err := w.locked(func() error {
		id, err := w.activeID()
		if err != nil {
			return err
		}
		s, ok := w.pipeline.Take(id)
		if !ok {
			return fmt.Errorf("suggestion for scene %s: %w", id, ErrNotFound)
		}
		cur, err := w.store.Get(id)
		if err != nil {
			return err
		}

		desc := appendContinuation(cur.Description, s.Text)
		refs := append(cur.CharacterRefs, timeline.MentionedNames(desc, w.registry.Names())...)
		sc, err = w.store.Update(id, timeline.ScenePatch{Description: &desc, CharacterRefs: &refs})
		if err != nil {
			return err
		}
		w.pipeline.OnTextChange(id, desc)

		metrics.SuggestionFeedback.WithLabelValues("accepted").Inc()
		w.sendFeedback(ctx, s.Text, ratingAccepted)
		return nil
	})
	if err != nil {
		return timeline.Scene{}, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "suggestion accepted", "story_id", w.id, "scene_id", sc.ID)
	return sc, nil
}

// RejectSuggestion drops the offered continuation and reports negative feedback.
func (w *Workspace) RejectSuggestion(ctx context.Context) error {
	return w.locked(func() error {
		id, err := w.activeID()
		if err != nil {
			return err
		}
		s, ok := w.pipeline.Pending(id)
		if !ok {
			return fmt.Errorf("suggestion for scene %s: %w", id, ErrNotFound)
		}
		w.pipeline.Discard(id)

		metrics.SuggestionFeedback.WithLabelValues("rejected").Inc()
		w.sendFeedback(ctx, s.Text, ratingRejected)
		return nil
	})
}

// GenerateScene asks the Suggestion Service for a complete scene following
// instruction and appends it. Characters the response introduces are added
// to the registry. Nothing is applied from a malformed response, or when the
// story was reloaded or closed while the request was out.
func (w *Workspace) GenerateScene(ctx context.Context, instruction string) (timeline.Scene, error) {
	logger := contextutil.LoggerFromContext(ctx)

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return timeline.Scene{}, &ValidationError{Field: "instruction", Message: "cannot be empty"}
	}

	var req suggest.Request
	var epoch uint64
	if err := w.locked(func() error {
		req = w.requestAt(w.store.IndexOf(w.tracker.Active()))
		req.Mode = suggest.ModeScene
		req.Instruction = instruction
		epoch = w.epoch
		return nil
	}); err != nil {
		return timeline.Scene{}, err
	}

	generated, err := w.opts.Generator.GenerateScene(ctx, req)
	if err != nil {
		result := "failed"
		var malformed *timeline.MalformedResponseError
		if errors.As(err, &malformed) {
			result = "malformed"
		}
		metrics.SceneGenerations.WithLabelValues(result).Inc()
		logger.ErrorContext(ctx, "scene generation failed", "story_id", w.id, "error", err)
		w.Do(func() {
			w.publish(events.TypeSceneGenFailed, map[string]any{
				"error":     err.Error(),
				"retryable": timeline.IsRetryable(err),
			})
		})
		return timeline.Scene{}, WrapError(err, "failed to generate scene")
	}

	var sc timeline.Scene
	err = w.locked(func() error {
		if w.epoch != epoch {
			metrics.SceneGenerations.WithLabelValues("discarded").Inc()
			return w.discarded(ctx, "generation", "story reloaded")
		}

		var added []string
		for _, nc := range generated.NewCharacters {
			if w.registry.Has(nc.Name) {
				continue
			}
			c, err := w.registry.Add(timeline.Character{Name: nc.Name, Role: nc.Role, Description: nc.Description})
			if err != nil {
				logger.WarnContext(ctx, "skipping generated character", "name", nc.Name, "error", err)
				continue
			}
			added = append(added, c.Name)
		}

		refs := append(timeline.MentionedNames(generated.Content, w.registry.Names()), added...)
		sc = w.store.Add(timeline.Scene{
			Title:         strings.TrimSpace(generated.Title),
			Description:   generated.Content,
			CharacterRefs: refs,
		})

		metrics.SceneGenerations.WithLabelValues("applied").Inc()
		w.publish(events.TypeSceneGenerated, sc)
		return nil
	})
	if err != nil {
		return timeline.Scene{}, err
	}

	logger.InfoContext(ctx, "scene generated", "story_id", w.id, "scene_id", sc.ID, "characters", len(sc.CharacterRefs))
	return sc, nil
}

func (w *Workspace) activeID() (string, error) {
	id := w.tracker.Active()
	if id == "" {
		return "", fmt.Errorf("active scene: %w", ErrNotFound)
	}
	return id, nil
}

// sendFeedback reports a verdict without waiting for it. Must be called
// with the lock held so Close can wait for it.
func (w *Workspace) sendFeedback(ctx context.Context, text string, rating float64) {
	if w.opts.Feedback == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	logger := contextutil.LoggerFromContext(ctx)

	w.bg.Add(1)
	go func() {
		defer w.bg.Done()
		if err := w.opts.Feedback.Send(ctx, text, rating); err != nil {
			logger.WarnContext(ctx, "failed to send suggestion feedback", "story_id", w.id, "rating", rating, "error", err)
		}
	}()
}

// appendContinuation joins a continuation to existing text, adding a space
// unless one side already provides the break.
func appendContinuation(desc, text string) string {
	if desc == "" {
		return strings.TrimLeftFunc(text, unicode.IsSpace)
	}
	last, _ := utf8.DecodeLastRuneInString(desc)
	first, _ := utf8.DecodeRuneInString(text)
	if unicode.IsSpace(last) || unicode.IsSpace(first) || strings.ContainsRune(".,;:!?)'\"", first) {
		return desc + text
	}
	return desc + " " + text
}
