package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const passingSkill = `---
name: Contract Risk Summarizer
slug: contract-risk-summarizer
description: Summarizes long PDF contracts into bullet-point risk lists
category: document-creation
complexity: simple
tags: [legal, pdf]
triggers:
  - summarize this contract
  - extract contract risks
---

## Overview

This skill reads a commercial contract and produces a short list of the risks a reviewer should look at first.

## Instructions

1. Read the whole document before writing anything, including schedules and annexes.
2. Group findings by liability, termination, payment terms and confidentiality.
3. Quote the clause number next to every risk so the reader can find it quickly.

## Output

A bullet list ordered from the most to the least severe risk, followed by one paragraph of overall assessment.
`

// fakeGenerator emits chunks, optionally blocking until released.
type fakeGenerator struct {
	chunks  []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) Stream(ctx context.Context, req generation.Request, onChunk func(string)) error {
	if g.started != nil {
		close(g.started)
	}
	for i, c := range g.chunks {
		onChunk(c)
		if i == 0 && g.release != nil {
			select {
			case <-g.release:
			case <-ctx.Done():
				// Keep emitting after cancel to prove late chunks are dropped.
			}
		}
	}
	return g.err
}

type fakeSaver struct {
	mu    sync.Mutex
	err   error
	saved []tool.Tool
}

func (s *fakeSaver) Save(_ context.Context, t tool.Tool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, t)
	return "tool-1", nil
}

func split(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

func TestHappyPath(t *testing.T) {
	saver := &fakeSaver{}
	var states []State
	s := New(&fakeGenerator{chunks: split(passingSkill, 64)}, saver,
		WithListener(func(snap Snapshot) { states = append(states, snap.State) }))

	assert.False(t, s.CanGenerate())
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	assert.True(t, s.CanGenerate())

	ctx := context.Background()
	require.NoError(t, s.Generate(ctx))

	snap := s.Snapshot()
	assert.Equal(t, StateGenerating, snap.State)
	assert.True(t, snap.Complete)
	assert.True(t, snap.CanCopy)
	assert.True(t, snap.CanContinue)
	assert.Equal(t, passingSkill, snap.Content)
	assert.False(t, snap.CanSwitchKind)

	require.NoError(t, s.ContinueToPreview(context.Background()))
	snap = s.Snapshot()
	require.Equal(t, StatePreview, snap.State)
	require.NotNil(t, snap.Result)
	assert.True(t, snap.Result.Passed, "%+v", snap.Result.Checks)
	assert.True(t, snap.CanSave)

	id, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tool-1", id)
	assert.Equal(t, StateSuccess, s.Snapshot().State)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "contract-risk-summarizer", saver.saved[0].Common().Slug)

	assert.Contains(t, states, StateSaving)

	require.NoError(t, s.Reset())
	snap = s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Content)
	assert.Equal(t, "Summarize legal contracts into risks", snap.Description)
}

func TestGenerateGuards(t *testing.T) {
	s := New(&fakeGenerator{}, nil)
	require.NoError(t, s.SetDescription("too short"))
	assert.ErrorIs(t, s.Generate(context.Background()), ErrDescriptionTooShort)

	assert.ErrorIs(t, s.ContinueToPreview(context.Background()), ErrNotAllowed)
	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, s.Back(), ErrNotAllowed)
	assert.ErrorIs(t, s.Reset(), ErrNotAllowed)
	assert.Error(t, s.SwitchKind("plugin"))
}

func TestGenerationFailureKeepsPartialText(t *testing.T) {
	s := New(&fakeGenerator{chunks: []string{"---\nname: Half"}, err: errors.New("stream interrupted")}, nil)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))

	err := s.Generate(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, ErrorGeneration, snap.ErrorKind)
	assert.Equal(t, "---\nname: Half", snap.Content)
	assert.True(t, snap.CanCopy)
	assert.False(t, snap.CanContinue)

	// Kind switch from error returns to idle.
	require.NoError(t, s.SwitchKind(tool.KindAgent))
	snap = s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, tool.KindAgent, snap.Kind)
	assert.Empty(t, snap.Error)
}

func TestParseFailure(t *testing.T) {
	s := New(&fakeGenerator{chunks: []string{"no frontmatter here"}}, nil)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	require.NoError(t, s.Generate(context.Background()))

	require.Error(t, s.ContinueToPreview(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, ErrorParse, snap.ErrorKind)
	assert.ErrorIs(t, s.Back(), ErrNotAllowed, "back is only offered after a save failure")
	require.NoError(t, s.Reset())
}

func TestAbandonDropsLateChunks(t *testing.T) {
	gen := &fakeGenerator{
		chunks:  []string{"first ", "late"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(gen, nil)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))

	done := make(chan error, 1)
	go func() { done <- s.Generate(context.Background()) }()

	<-gen.started
	s.Abandon()
	err := <-done
	assert.ErrorIs(t, err, ErrAbandoned)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Content)
	assert.Equal(t, uint64(2), snap.Epoch)

	// A fresh generation starts from an empty buffer.
	gen2 := &fakeGenerator{chunks: []string{"fresh"}}
	s.gen = gen2
	require.NoError(t, s.Generate(context.Background()))
	assert.Equal(t, "fresh", s.Snapshot().Content)
}

func TestSaveFailureAllowsRetryAndBack(t *testing.T) {
	saver := &fakeSaver{err: storage.ErrDuplicateSlug}
	s := New(&fakeGenerator{chunks: []string{passingSkill}}, saver)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx))
	require.NoError(t, s.ContinueToPreview(context.Background()))

	_, err := s.Save(ctx)
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)
	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, ErrorSave, snap.ErrorKind)
	assert.True(t, snap.CanSave)
	assert.NotNil(t, snap.Record, "record survives a failed save")

	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()
	id, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tool-1", id)

	// Back from a save error goes to idle.
	saver.err = errors.New("network down")
	require.NoError(t, s.Reset())
	require.NoError(t, s.Generate(ctx))
	require.NoError(t, s.ContinueToPreview(context.Background()))
	_, err = s.Save(ctx)
	require.Error(t, err)
	require.NoError(t, s.Back())
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestFailingToolCannotBeSaved(t *testing.T) {
	doc := "---\nname: X\ndescription: short\n---\nbody\n"
	s := New(&fakeGenerator{chunks: []string{doc}}, &fakeSaver{})
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	require.NoError(t, s.Generate(context.Background()))
	require.NoError(t, s.ContinueToPreview(context.Background()))

	snap := s.Snapshot()
	require.NotNil(t, snap.Result)
	assert.False(t, snap.Result.Passed)
	assert.False(t, snap.Result.Checks.Format.Passed)
	assert.False(t, snap.CanSave)

	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Equal(t, StatePreview, s.Snapshot().State)
}

func TestApplyFixesReverifies(t *testing.T) {
	doc := strings.Replace(passingSkill, "slug: contract-risk-summarizer", "slug: Contract_Risks", 1)
	s := New(&fakeGenerator{chunks: []string{doc}}, &fakeSaver{})
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	require.NoError(t, s.Generate(context.Background()))
	require.NoError(t, s.ContinueToPreview(context.Background()))

	snap := s.Snapshot()
	require.NotEmpty(t, snap.Fixes)
	assert.False(t, snap.Result.Checks.Format.Passed)

	require.NoError(t, s.ApplyFixes(context.Background(), snap.Fixes))
	snap = s.Snapshot()
	assert.Equal(t, "contract-risks", snap.Record.Common().Slug)
	assert.True(t, snap.Result.Checks.Format.Passed)
	assert.Empty(t, snap.Fixes)
}

// blockingReviewer holds verification open until released or cancelled.
type blockingReviewer struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingReviewer) Review(ctx context.Context, _ tool.Tool) ([]string, error) {
	close(r.started)
	select {
	case <-r.release:
		return []string{"tighten the overview"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// blockingSaver holds a save open until released.
type blockingSaver struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSaver) Save(ctx context.Context, _ tool.Tool) (string, error) {
	close(b.started)
	select {
	case <-b.release:
		return "tool-1", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func generated(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(&fakeGenerator{chunks: []string{passingSkill}}, &fakeSaver{}, opts...)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	require.NoError(t, s.Generate(context.Background()))
	return s
}

func TestSnapshotDuringSlowReview(t *testing.T) {
	r := &blockingReviewer{started: make(chan struct{}), release: make(chan struct{})}
	s := generated(t, WithVerifier(verify.New(verify.WithReviewer(r))))

	done := make(chan error, 1)
	go func() { done <- s.ContinueToPreview(context.Background()) }()
	<-r.started

	snap := s.Snapshot()
	assert.Equal(t, StateGenerating, snap.State)
	assert.True(t, snap.Verifying)
	assert.False(t, snap.CanContinue)
	assert.ErrorIs(t, s.ContinueToPreview(context.Background()), ErrNotAllowed)

	close(r.release)
	require.NoError(t, <-done)
	snap = s.Snapshot()
	assert.Equal(t, StatePreview, snap.State)
	assert.False(t, snap.Verifying)
	assert.Equal(t, []string{"tighten the overview"}, snap.Result.Checks.AIReview.Suggestions)
}

func TestAbandonDuringReview(t *testing.T) {
	r := &blockingReviewer{started: make(chan struct{})}
	s := generated(t, WithVerifier(verify.New(verify.WithReviewer(r))))

	done := make(chan error, 1)
	go func() { done <- s.ContinueToPreview(context.Background()) }()
	<-r.started

	s.Abandon()
	assert.ErrorIs(t, <-done, ErrAbandoned)
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Record)
	assert.False(t, snap.Verifying)
}

func TestSwitchKindRefusedWhileGenerating(t *testing.T) {
	gen := &fakeGenerator{
		chunks:  []string{"---\n", "name: X\n"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(gen, nil)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))

	done := make(chan error, 1)
	go func() { done <- s.Generate(context.Background()) }()
	<-gen.started

	assert.False(t, s.CanSwitchKind())
	assert.ErrorIs(t, s.SwitchKind(tool.KindAgent), ErrNotAllowed)
	assert.ErrorIs(t, s.SetDescription("Something else entirely"), ErrNotAllowed)
	snap := s.Snapshot()
	assert.Equal(t, StateGenerating, snap.State)
	assert.Equal(t, tool.KindSkill, snap.Kind)
	assert.Equal(t, "Summarize legal contracts into risks", snap.Description)

	close(gen.release)
	require.NoError(t, <-done)
}

func TestSaveGuardsWhileSaving(t *testing.T) {
	saver := &blockingSaver{started: make(chan struct{}), release: make(chan struct{})}
	s := New(&fakeGenerator{chunks: []string{passingSkill}}, saver)
	require.NoError(t, s.SetDescription("Summarize legal contracts into risks"))
	ctx := context.Background()
	require.NoError(t, s.Generate(ctx))
	require.NoError(t, s.ContinueToPreview(ctx))

	type saveResult struct {
		id  string
		err error
	}
	done := make(chan saveResult, 1)
	go func() {
		id, err := s.Save(ctx)
		done <- saveResult{id, err}
	}()
	<-saver.started

	assert.ErrorIs(t, s.SwitchKind(tool.KindCommand), ErrNotAllowed)
	_, err := s.Save(ctx)
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, s.Back(), ErrNotAllowed)
	snap := s.Snapshot()
	assert.Equal(t, StateSaving, snap.State)
	assert.Equal(t, tool.KindSkill, snap.Kind)
	assert.False(t, snap.CanSave)

	close(saver.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "tool-1", res.id)
	assert.Equal(t, StateSuccess, s.Snapshot().State)
}
