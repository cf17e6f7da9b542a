// Package pollengine implements the dual-identity voting engine inside the
// engagement context.
//
// The module owns poll registration (idempotent get-or-create keyed by page
// and position), vote submission for the three poll kinds (single-choice,
// ranking, wordcloud), and the read-time aggregation that merges survey and
// CEW conference votes into one combined result per logical question. It
// keeps business rules in application/domain layers and isolates
// infrastructure concerns behind ports and adapters.
package pollengine
