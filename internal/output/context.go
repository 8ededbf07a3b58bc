package output

import "context"

// settings is everything the root command resolves about presentation.
// It travels as one context value so the printer and the prompts agree.
type settings struct {
	format   Format
	query    string
	yes      bool
	quiet    bool
	limit    int
	sortBy   string
	sortDesc bool
}

type settingsKey struct{}

func settingsFrom(ctx context.Context) settings {
	if ctx == nil {
		return settings{format: FormatText}
	}
	s, ok := ctx.Value(settingsKey{}).(settings)
	if !ok {
		s.format = FormatText
	}
	return s
}

func with(ctx context.Context, update func(*settings)) context.Context {
	s := settingsFrom(ctx)
	update(&s)
	return context.WithValue(ctx, settingsKey{}, s)
}

// WithFormat attaches the output format.
func WithFormat(ctx context.Context, format Format) context.Context {
	return with(ctx, func(s *settings) { s.format = format })
}

// FormatFromContext returns the output format, FormatText when unset.
func FormatFromContext(ctx context.Context) Format {
	if f := settingsFrom(ctx).format; f != "" {
		return f
	}
	return FormatText
}

// WithQuery attaches a jq expression applied to JSON output.
func WithQuery(ctx context.Context, query string) context.Context {
	return with(ctx, func(s *settings) { s.query = query })
}

func QueryFromContext(ctx context.Context) string { return settingsFrom(ctx).query }

// WithYes records --yes; confirmation prompts are skipped.
func WithYes(ctx context.Context, yes bool) context.Context {
	return with(ctx, func(s *settings) { s.yes = yes })
}

func YesFromContext(ctx context.Context) bool { return settingsFrom(ctx).yes }

// WithQuiet records --quiet; status lines are suppressed.
func WithQuiet(ctx context.Context, quiet bool) context.Context {
	return with(ctx, func(s *settings) { s.quiet = quiet })
}

func QuietFromContext(ctx context.Context) bool { return settingsFrom(ctx).quiet }

// WithLimit caps the number of results printed. 0 means no cap.
func WithLimit(ctx context.Context, limit int) context.Context {
	return with(ctx, func(s *settings) { s.limit = limit })
}

func LimitFromContext(ctx context.Context) int { return settingsFrom(ctx).limit }

// WithSort orders results by a dotted field path (or a table header).
func WithSort(ctx context.Context, field string, desc bool) context.Context {
	return with(ctx, func(s *settings) {
		s.sortBy = field
		s.sortDesc = desc
	})
}

func SortFromContext(ctx context.Context) (field string, desc bool) {
	s := settingsFrom(ctx)
	return s.sortBy, s.sortDesc
}
