package reconcile

import "encoding/json"

// Shape enumerates the value layouts the blob reconciler understands, in the
// order they are tried. A shape applies only when both sides have it.
type Shape int

const (
	ShapeOpaque Shape = iota
	ShapeNumber
	ShapeScoreRatio      // {score, total}
	ShapePassFail        // {correct, total}
	ShapeCompletionRatio // {completed: number, total}
	ShapeVocabulary      // {uniqueWords}
	ShapeFlag            // {completed: bool}
)

func (s Shape) String() string {
	switch s {
	case ShapeNumber:
		return "number"
	case ShapeScoreRatio:
		return "score_ratio"
	case ShapePassFail:
		return "pass_fail"
	case ShapeCompletionRatio:
		return "completion_ratio"
	case ShapeVocabulary:
		return "vocabulary"
	case ShapeFlag:
		return "flag"
	default:
		return "opaque"
	}
}

// Ratio is a part/total pair.
type Ratio struct {
	Part  float64
	Total float64
}

// Value returns Part/Total, or 0 when Total is 0.
func (r Ratio) Value() float64 {
	if r.Total == 0 {
		return 0
	}
	return r.Part / r.Total
}

// PassFail is a {correct, total} result.
type PassFail struct {
	Correct float64
	Total   float64
}

func (p PassFail) Passed() bool { return p.Correct >= p.Total }

// BlobValue is one decoded game-progress entry with its recognised shapes.
type BlobValue struct {
	Raw any

	Number          *float64
	ScoreRatio      *Ratio
	PassFail        *PassFail
	CompletionRatio *Ratio
	Vocabulary      *float64
	Flag            *bool

	object map[string]any
}

// DecodeBlobValue classifies raw. Objects may satisfy several shapes at once.
func DecodeBlobValue(raw any) BlobValue {
	v := BlobValue{Raw: raw}
	if raw == nil {
		return v
	}
	if n, ok := toFloat(raw); ok {
		v.Number = &n
		return v
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return v
	}
	v.object = obj

	total, hasTotal := numberField(obj, "total")
	if score, ok := numberField(obj, "score"); ok && hasTotal {
		v.ScoreRatio = &Ratio{Part: score, Total: total}
	}
	if correct, ok := numberField(obj, "correct"); ok && hasTotal {
		v.PassFail = &PassFail{Correct: correct, Total: total}
	}
	if completed, ok := numberField(obj, "completed"); ok && hasTotal {
		v.CompletionRatio = &Ratio{Part: completed, Total: total}
	}
	if words, ok := numberField(obj, "uniqueWords"); ok {
		v.Vocabulary = &words
	}
	if flag, ok := obj["completed"].(bool); ok {
		v.Flag = &flag
	}
	return v
}

// Has reports whether v carries shape s.
func (v BlobValue) Has(s Shape) bool {
	switch s {
	case ShapeNumber:
		return v.Number != nil
	case ShapeScoreRatio:
		return v.ScoreRatio != nil
	case ShapePassFail:
		return v.PassFail != nil
	case ShapeCompletionRatio:
		return v.CompletionRatio != nil
	case ShapeVocabulary:
		return v.Vocabulary != nil
	case ShapeFlag:
		return v.Flag != nil
	default:
		return false
	}
}

type shapeRule struct {
	shape Shape
	merge func(a, b BlobValue) any
}

var blobRules = []shapeRule{
	{ShapeNumber, mergeNumber},
	{ShapeScoreRatio, mergeScoreRatio},
	{ShapePassFail, mergePassFail},
	{ShapeCompletionRatio, mergeCompletionRatio},
	{ShapeVocabulary, mergeVocabulary},
	{ShapeFlag, mergeFlag},
}

// MergeBlobValue resolves one key. It returns the merged value and the shape
// that decided it (ShapeOpaque for the null and last-write-wins paths).
func MergeBlobValue(existing, incoming any) (any, Shape) {
	if existing == nil {
		return incoming, ShapeOpaque
	}
	if incoming == nil {
		return existing, ShapeOpaque
	}
	a, b := DecodeBlobValue(existing), DecodeBlobValue(incoming)
	for _, rule := range blobRules {
		if a.Has(rule.shape) && b.Has(rule.shape) {
			return rule.merge(a, b), rule.shape
		}
	}
	return incoming, ShapeOpaque
}

// MergeBlobs merges every key of incoming into existing. Keys only present in
// existing are kept; keys resolving to null are dropped. Neither input is
// modified.
func MergeBlobs(existing, incoming map[string]any) map[string]any {
	return MergeBlobsFunc(existing, incoming, nil)
}

// MergeBlobsFunc is MergeBlobs with a callback receiving the shape that
// resolved each incoming key.
func MergeBlobsFunc(existing, incoming map[string]any, observe func(key string, shape Shape)) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		if v != nil {
			out[k] = v
		}
	}
	for k, v := range incoming {
		merged, shape := MergeBlobValue(existing[k], v)
		if observe != nil {
			observe(k, shape)
		}
		if merged == nil {
			delete(out, k)
			continue
		}
		out[k] = merged
	}
	return out
}

func mergeNumber(a, b BlobValue) any {
	if *b.Number > *a.Number {
		return b.Raw
	}
	return a.Raw
}

func mergeScoreRatio(a, b BlobValue) any {
	if b.ScoreRatio.Value() > a.ScoreRatio.Value() {
		return b.Raw
	}
	return a.Raw
}

func mergePassFail(a, b BlobValue) any {
	ap, bp := a.PassFail.Passed(), b.PassFail.Passed()
	if ap != bp {
		if bp {
			return b.Raw
		}
		return a.Raw
	}
	if b.PassFail.Correct > a.PassFail.Correct {
		return b.Raw
	}
	return a.Raw
}

func mergeCompletionRatio(a, b BlobValue) any {
	if b.CompletionRatio.Value() > a.CompletionRatio.Value() {
		return b.Raw
	}
	return a.Raw
}

func mergeVocabulary(a, b BlobValue) any {
	if *b.Vocabulary > *a.Vocabulary {
		return b.Raw
	}
	return a.Raw
}

func mergeFlag(a, b BlobValue) any {
	if !*a.Flag && !*b.Flag {
		return a.Raw
	}
	out := make(map[string]any, len(a.object))
	for k, v := range a.object {
		out[k] = v
	}
	out["completed"] = true
	return out
}

func numberField(obj map[string]any, key string) (float64, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
