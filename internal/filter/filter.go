package filter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/framesafe/framesafe/internal/audit"
	"github.com/framesafe/framesafe/internal/cache"
	"github.com/framesafe/framesafe/internal/logger"
	"github.com/framesafe/framesafe/internal/masking"
	"github.com/framesafe/framesafe/internal/pii"
)

// Filter runs detection and masking over incoming text and decides whether
// the result may be stored. The read path is a pure function of the input
// and the active config; only config swaps mutate state, and they are
// atomic: a call sees either the entirely-old or entirely-new config.
type Filter struct {
	detector *pii.Detector
	masker   *masking.Masker
	auditor  *audit.Auditor
	cache    cache.Cache
	logger   *zap.Logger

	maskingCfg masking.Config

	state    atomic.Pointer[configState]
	updateMu sync.Mutex
}

// configState snapshots one config generation. revision keys the result
// cache so entries written under a stale config never hit.
type configState struct {
	cfg      Config
	allowed  pii.TypeSet
	revision uint64
}

// Options bundles the filter's construction-time configuration.
type Options struct {
	Config  Config
	Masking masking.Config
	// Cache is optional; when set, identical text blocks replay the prior
	// outcome without re-detection. A hit emits no audit events for that
	// call, so enabling the cache trades the per-call audit trail for
	// throughput on repeated frames.
	Cache cache.Cache
}

// New creates a filter. The auditor is required; every detection, masking,
// and storage-refusal event originates here.
func New(opts Options, detector *pii.Detector, masker *masking.Masker, auditor *audit.Auditor, log *zap.Logger) *Filter {
	f := &Filter{
		detector:   detector,
		masker:     masker,
		auditor:    auditor,
		cache:      opts.Cache,
		logger:     log,
		maskingCfg: opts.Masking,
	}
	f.state.Store(&configState{
		cfg:      opts.Config,
		allowed:  pii.NewTypeSet(opts.Config.AllowedPIITypes...),
		revision: 1,
	})

	log.Info("PII filter initialized",
		zap.Int("allowed_types", len(opts.Config.AllowedPIITypes)),
		zap.Bool("prevent_pii_storage", opts.Config.PreventPIIStorage),
		zap.Bool("real_time_filtering", opts.Config.EnableRealTimeFiltering),
	)

	return f
}

// Config returns a copy of the active configuration.
func (f *Filter) Config() Config {
	return f.state.Load().cfg
}

// FilterText scans one text block, masks every detected span, and decides
// storage admission. source identifies the producing collaborator and is
// carried into audit events as context.
func (f *Filter) FilterText(text, source string) Result {
	state := f.state.Load()

	if !state.cfg.EnableRealTimeFiltering {
		return Result{
			OriginalText: text,
			FilteredText: text,
			ShouldStore:  true,
		}
	}

	key := cache.Key(text, state.revision)
	if f.cache != nil {
		if entry, ok := f.cache.Get(context.Background(), key); ok {
			return resultFromEntry(text, entry)
		}
	}

	result := f.evaluate(state, text, source)

	if f.cache != nil {
		f.cache.Set(context.Background(), key, entryFromResult(result))
	}
	return result
}

// evaluate is the uncached filtering path, including audit emission.
func (f *Filter) evaluate(state *configState, text, source string) Result {
	detected := f.detector.DetectTypes(text)

	result := Result{
		OriginalText:  text,
		FilteredText:  text,
		DetectedTypes: detected,
		BlockedTypes:  make(pii.TypeSet),
		ShouldStore:   true,
	}
	if len(detected) == 0 {
		return result
	}

	result.ContainedPII = true
	for t := range detected {
		if !state.allowed.Contains(t) {
			result.BlockedTypes[t] = true
		}
	}
	result.ShouldStore = !(state.cfg.PreventPIIStorage && len(result.BlockedTypes) > 0)

	f.auditor.LogEvent(audit.Event{
		Type:     audit.EventPIIDetected,
		PIITypes: detected.Sorted(),
		Context:  source,
		Source:   "filter",
		Severity: severityFor(detected),
	})

	if !result.ShouldStore {
		result.FilteredText = BlockedMarker
		f.auditor.LogEvent(audit.Event{
			Type:     audit.EventStorageBlocked,
			PIITypes: result.BlockedTypes.Sorted(),
			Context:  source,
			Source:   "filter",
			Severity: audit.SeverityHigh,
		})
		f.logger.Debug("Storage refused",
			logger.TextDigest(text),
			zap.Int("blocked_types", len(result.BlockedTypes)),
			zap.String("source", source),
		)
		return result
	}

	masked := f.masker.Mask(text, f.maskingCfg)
	result.FilteredText = masked.MaskedText
	result.MaskingApplied = true

	metadata := make(map[string]string, len(masked.MaskingMap))
	for t, count := range masked.MaskingMap {
		metadata[string(t)] = strconv.Itoa(count)
	}
	f.auditor.LogEvent(audit.Event{
		Type:     audit.EventPIIMasked,
		PIITypes: detected.Sorted(),
		Context:  source,
		Source:   "filter",
		Severity: audit.SeverityMedium,
		Metadata: metadata,
	})

	f.logger.Debug("Text masked for storage",
		logger.TextDigest(text),
		zap.Int("masked_spans", masked.MaskedCount),
		zap.String("source", source),
	)

	return result
}

// ShouldBlockStorage reports whether the current config refuses storage of
// text, without building a full result or emitting audit events.
func (f *Filter) ShouldBlockStorage(text string) bool {
	state := f.state.Load()
	if !state.cfg.EnableRealTimeFiltering || !state.cfg.PreventPIIStorage {
		return false
	}
	for t := range f.detector.DetectTypes(text) {
		if !state.allowed.Contains(t) {
			return true
		}
	}
	return false
}

// FilterBatch filters every item in order, keeping each result associated
// with its item's metadata.
func (f *Filter) FilterBatch(items []BatchItem) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		results = append(results, BatchResult{
			Result:   f.FilterText(item.Text, item.Metadata["source"]),
			Metadata: item.Metadata,
		})
	}
	return results
}

// UpdateConfig atomically swaps the active config and emits a configChanged
// audit event carrying a field diff.
func (f *Filter) UpdateConfig(newCfg Config) {
	f.updateMu.Lock()
	defer f.updateMu.Unlock()

	old := f.state.Load()
	diff := diffConfigs(old.cfg, newCfg)

	f.state.Store(&configState{
		cfg:      newCfg,
		allowed:  pii.NewTypeSet(newCfg.AllowedPIITypes...),
		revision: old.revision + 1,
	})

	if len(diff) > 0 {
		f.auditor.LogEvent(audit.Event{
			Type:     audit.EventConfigChanged,
			Source:   "filter",
			Severity: audit.SeverityLow,
			Metadata: diff,
		})
	}

	f.logger.Info("Filter config updated", zap.Int("changed_fields", len(diff)))
}

// severityFor grades a detection by its strongest type: government and
// payment identifiers are high, everything else medium.
func severityFor(types pii.TypeSet) audit.Severity {
	if types.Contains(pii.TypeSSN) || types.Contains(pii.TypeCreditCard) {
		return audit.SeverityHigh
	}
	return audit.SeverityMedium
}

// diffConfigs renders the changed fields as old -> new strings.
func diffConfigs(old, updated Config) map[string]string {
	diff := make(map[string]string)
	if oldTypes, newTypes := typeList(old.AllowedPIITypes), typeList(updated.AllowedPIITypes); oldTypes != newTypes {
		diff["allowed_pii_types"] = fmt.Sprintf("%s -> %s", oldTypes, newTypes)
	}
	if old.PreventPIIStorage != updated.PreventPIIStorage {
		diff["prevent_pii_storage"] = fmt.Sprintf("%t -> %t", old.PreventPIIStorage, updated.PreventPIIStorage)
	}
	if old.EnableRealTimeFiltering != updated.EnableRealTimeFiltering {
		diff["enable_real_time_filtering"] = fmt.Sprintf("%t -> %t", old.EnableRealTimeFiltering, updated.EnableRealTimeFiltering)
	}
	return diff
}

func typeList(types []pii.Type) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ",")
}

// entryFromResult converts a result for caching.
func entryFromResult(result Result) *cache.Entry {
	return &cache.Entry{
		FilteredText:   result.FilteredText,
		ContainedPII:   result.ContainedPII,
		DetectedTypes:  result.DetectedTypes.Sorted(),
		BlockedTypes:   result.BlockedTypes.Sorted(),
		MaskingApplied: result.MaskingApplied,
		ShouldStore:    result.ShouldStore,
	}
}

// resultFromEntry rehydrates a cached outcome for the given original text.
func resultFromEntry(text string, entry *cache.Entry) Result {
	return Result{
		OriginalText:   text,
		FilteredText:   entry.FilteredText,
		ContainedPII:   entry.ContainedPII,
		DetectedTypes:  pii.NewTypeSet(entry.DetectedTypes...),
		BlockedTypes:   pii.NewTypeSet(entry.BlockedTypes...),
		MaskingApplied: entry.MaskingApplied,
		ShouldStore:    entry.ShouldStore,
	}
}
