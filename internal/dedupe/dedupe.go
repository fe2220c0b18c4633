package dedupe

// Package dedupe provides the shared singleflight group used to deduplicate
// concurrent AI question-generation requests. Only one generation job runs
// for a given topic+difficulty key while other callers wait for the result.

import "golang.org/x/sync/singleflight"

// QuestionGroup deduplicates question generation requests keyed by
// "<topic>|<difficulty>".
var QuestionGroup singleflight.Group
