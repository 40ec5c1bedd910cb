// Package prompt fills forms interactively from a terminal.
//
// Each answer is applied the way a browser control would report it: the value
// changes first, then the field is marked touched as it loses focus. After the
// last field the form is submitted; when validation fails the errors are
// printed and only the failing fields are asked again.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pthm/formup"
)

// ErrGaveUp is returned when the form is still invalid after the last round.
var ErrGaveUp = errors.New("prompt: form still invalid")

// DefaultMaxRounds bounds how often failing fields are asked again.
const DefaultMaxRounds = 3

// Filler drives a Form through a Driver.
type Filler struct {
	driver    Driver
	logger    *slog.Logger
	maxRounds int
	confirm   bool
}

// Option configures a Filler.
type Option func(*Filler)

// WithDriver replaces the terminal driver.
func WithDriver(d Driver) Option {
	return func(f *Filler) {
		if d != nil {
			f.driver = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMaxRounds sets how many times failing fields are asked again.
func WithMaxRounds(n int) Option {
	return func(f *Filler) {
		if n >= 0 {
			f.maxRounds = n
		}
	}
}

// WithConfirm asks before each retry round instead of retrying directly.
func WithConfirm() Option {
	return func(f *Filler) {
		f.confirm = true
	}
}

// NewFiller creates a Filler using the survey driver unless WithDriver is
// given.
func NewFiller(opts ...Option) *Filler {
	f := &Filler{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// Fill asks for every field, then submits. The returned outcome is that of
// the last submit; ErrGaveUp accompanies it when the form stayed invalid.
func (f *Filler) Fill(ctx context.Context, form *formup.Form) (formup.Outcome, error) {
	if err := f.askAll(ctx, form.Fields()); err != nil {
		return formup.Outcome{}, err
	}

	for round := 0; ; round++ {
		out, err := form.Submit(ctx, &formup.SubmitEvent{})
		if err != nil {
			return out, err
		}
		if out.Submitted {
			f.logger.Debug("prompt: form submitted", "form", form.ID(), "rounds", round)
			return out, nil
		}

		f.logger.Debug("prompt: form invalid", "form", form.ID(), "errors", len(out.Errors))
		if err := f.report(ctx, form); err != nil {
			return out, err
		}
		if round >= f.maxRounds {
			return out, fmt.Errorf("%w after %d round(s)", ErrGaveUp, round+1)
		}
		if f.confirm {
			retry, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Fix the errors?", Default: true})
			if err != nil {
				return out, err
			}
			if !retry {
				return out, ErrGaveUp
			}
		}

		var failing []formup.Field
		for _, fl := range form.Fields() {
			if fl.HasError() {
				failing = append(failing, fl)
			}
		}
		if len(failing) == 0 {
			// Only form level messages; asking again cannot fix them.
			return out, ErrGaveUp
		}
		if err := f.askAll(ctx, failing); err != nil {
			return out, err
		}
	}
}

func (f *Filler) askAll(ctx context.Context, fields []formup.Field) error {
	for _, fl := range fields {
		if err := f.ask(ctx, fl); err != nil {
			return err
		}
	}
	return nil
}

// ask prompts for one field and applies the answer as change then blur.
func (f *Filler) ask(ctx context.Context, fl formup.Field) error {
	value, err := f.answer(ctx, fl)
	if err != nil {
		return fmt.Errorf("prompt: field %q: %w", fl.Name, err)
	}

	var b formup.Bind
	if err := b.Change(fl, formup.ChangeEvent{Field: fl.Name, Value: value}); err != nil {
		return err
	}
	return b.Blur(fl, formup.BlurEvent{Field: fl.Name})
}

func (f *Filler) answer(ctx context.Context, fl formup.Field) (string, error) {
	help := ""
	if fl.HasError() {
		help = fl.Error
	}

	if fl.Kind == formup.KindSelect && len(fl.Choices) > 0 {
		options := make([]string, 0, len(fl.Choices))
		values := make([]string, 0, len(fl.Choices))
		current := 0
		for _, c := range fl.Choices {
			if c.Disabled {
				continue
			}
			if c.Value == fl.StringValue() {
				current = len(options)
			}
			label := c.Label
			if label == "" {
				label = c.Value
			}
			options = append(options, label)
			values = append(values, c.Value)
		}
		if len(options) > 0 {
			idx, err := f.driver.Select(ctx, SelectConfig{
				Message:      fl.DisplayLabel(),
				Options:      options,
				DefaultIndex: current,
				Help:         help,
			})
			if err != nil {
				return "", err
			}
			if idx < 0 || idx >= len(values) {
				return "", fmt.Errorf("invalid selection %d", idx)
			}
			return values[idx], nil
		}
	}

	message := fl.DisplayLabel()
	if fl.Kind == formup.KindDate {
		message += " (YYYY-MM-DD)"
	}
	return f.driver.Input(ctx, InputConfig{
		Message: message,
		Default: fl.StringValue(),
		Help:    help,
	})
}

func (f *Filler) report(ctx context.Context, form *formup.Form) error {
	for _, msg := range form.Errors() {
		if err := f.driver.Info(ctx, "  - "+msg); err != nil {
			return err
		}
	}
	return nil
}
