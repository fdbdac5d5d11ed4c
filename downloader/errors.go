package downloader

import (
	"context"
	"errors"

	"github.com/spotDL/spotify-downloader-sub000/provider"
	"github.com/spotDL/spotify-downloader-sub000/spotify"
)

var (
	// ErrConversion marks a transcoding failure. Assumed
	// deterministic, so never retried.
	ErrConversion = errors.New("downloader: conversion failed")
	// ErrConfiguration marks an invalid option combination,
	// detected before any network activity.
	ErrConfiguration = errors.New("downloader: invalid configuration")
)

// retryRules classifies per-song failures: content-absence and
// deterministic conditions are matched explicitly and never retried,
// anything else (network, IO, upstream hiccups) counts as transient.
// Checked in order, first match wins.
var retryRules = []struct {
	match func(error) bool
	retry bool
}{
	{func(err error) bool { return errors.Is(err, provider.ErrNoCandidate) }, false},
	{func(err error) bool { return errors.Is(err, provider.ErrNoStream) }, false},
	{func(err error) bool { return errors.Is(err, spotify.ErrNotFound) }, false},
	{func(err error) bool { return errors.Is(err, spotify.ErrNoMatch) }, false},
	{func(err error) bool { return errors.Is(err, ErrConversion) }, false},
	{func(err error) bool { return errors.Is(err, ErrConfiguration) }, false},
	{func(err error) bool { return errors.Is(err, context.Canceled) }, false},
}

// Retryable reports whether the task that failed with the given
// error should be requeued at the end of the run.
func Retryable(err error) bool {
	for _, rule := range retryRules {
		if rule.match(err) {
			return rule.retry
		}
	}
	return true
}
