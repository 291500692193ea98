// Package evaluator scores an analysis document against a ground-truth
// annotation: set-based precision, recall and F1 over extracted artifacts,
// and phase-mapping accuracy over the artifacts both documents map.
//
// Scoring is pure. Missing or malformed substructure degrades to an empty
// set or map, which in turn scores 0.0; it is never an error.
package evaluator

import (
	"github.com/PaesslerAG/jsonpath"

	"github.com/iyulab/forensic-mapper/internal/artifact"
)

// Document is a decoded JSON analysis or ground-truth document.
type Document map[string]interface{}

const (
	artifactsPath = "$.artifacts.artifacts"
	killChainPath = "$.kill_chain_analysis.kill_chain_mapping"
)

// Result holds the four headline scores and how they were reached.
type Result struct {
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	MappingAccuracy float64 `json:"mapping_accuracy"`
	Details         Details `json:"details"`
}

// Details are the counts and per-artifact differences behind a Result.
type Details struct {
	TruePositives   int             `json:"true_positives"`
	FalsePositives  int             `json:"false_positives"`
	FalseNegatives  int             `json:"false_negatives"`
	SharedMappings  int             `json:"shared_mappings"`
	CorrectMappings int             `json:"correct_mappings"`
	Missed          []artifact.Key  `json:"missed,omitempty"`
	Spurious        []artifact.Key  `json:"spurious,omitempty"`
	Mismatched      []PhaseMismatch `json:"mismatched,omitempty"`
}

// PhaseMismatch is an artifact both documents map, to different phases.
type PhaseMismatch struct {
	Artifact  artifact.Key `json:"artifact"`
	Predicted string       `json:"predicted"`
	Truth     string       `json:"truth"`
}

// Score compares a predicted document with a ground-truth document.
func Score(pred, truth Document) Result {
	predSet, truthSet := ToArtifactSet(pred), ToArtifactSet(truth)
	predMap, truthMap := ToPhaseMap(pred), ToPhaseMap(truth)

	var r Result
	r.Precision, r.Recall, r.F1 = PrecisionRecallF1(predSet, truthSet)
	r.MappingAccuracy = MappingAccuracy(predMap, truthMap)

	d := &r.Details
	for _, k := range truthSet.Keys() {
		if !predSet.Has(k) {
			d.Missed = append(d.Missed, k)
		}
	}
	for _, k := range predSet.Keys() {
		if truthSet.Has(k) {
			d.TruePositives++
		} else {
			d.Spurious = append(d.Spurious, k)
		}
	}
	d.FalsePositives = len(d.Spurious)
	d.FalseNegatives = len(d.Missed)

	for _, k := range sharedKeys(predMap, truthMap) {
		d.SharedMappings++
		if predMap[k] == truthMap[k] {
			d.CorrectMappings++
			continue
		}
		d.Mismatched = append(d.Mismatched, PhaseMismatch{Artifact: k, Predicted: predMap[k], Truth: truthMap[k]})
	}
	return r
}

// ToArtifactSet collects the normalized identities of doc.artifacts.artifacts.
func ToArtifactSet(doc Document) artifact.Set {
	set := make(artifact.Set)
	for _, item := range list(doc, artifactsPath) {
		if k, ok := keyOf(item); ok {
			set.Add(k)
		}
	}
	return set
}

// PrecisionRecallF1 scores pred against truth as sets. Every zero
// denominator yields 0.0, so an empty side always scores (0, 0, 0).
func PrecisionRecallF1(pred, truth artifact.Set) (precision, recall, f1 float64) {
	var tp, fp, fn int
	for k := range pred {
		if truth.Has(k) {
			tp++
		} else {
			fp++
		}
	}
	for k := range truth {
		if !pred.Has(k) {
			fn++
		}
	}

	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// ToPhaseMap flattens doc.kill_chain_analysis.kill_chain_mapping into an
// artifact -> phase assignment. Later groups overwrite earlier ones. Groups
// without a string phase and artifacts without a string type and value are
// skipped.
func ToPhaseMap(doc Document) artifact.PhaseMap {
	m := make(artifact.PhaseMap)
	for _, item := range list(doc, killChainPath) {
		group, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		phase, _ := group["phase"].(string)
		if phase == "" {
			continue
		}
		artifacts, _ := group["artifacts"].([]interface{})
		for _, a := range artifacts {
			if k, ok := keyOf(a); ok {
				m[k] = phase
			}
		}
	}
	return m
}

// MappingAccuracy is the share of artifacts mapped by both sides that carry
// the same phase label, compared exactly. No overlap scores 0.0.
func MappingAccuracy(pred, truth artifact.PhaseMap) float64 {
	shared := sharedKeys(pred, truth)
	if len(shared) == 0 {
		return 0.0
	}
	correct := 0
	for _, k := range shared {
		if pred[k] == truth[k] {
			correct++
		}
	}
	return float64(correct) / float64(len(shared))
}

func sharedKeys(pred, truth artifact.PhaseMap) []artifact.Key {
	var keys []artifact.Key
	for k := range truth {
		if _, ok := pred[k]; ok {
			keys = append(keys, k)
		}
	}
	artifact.SortKeys(keys)
	return keys
}

// list resolves path in doc and returns it when it is a JSON array.
func list(doc Document, path string) []interface{} {
	if doc == nil {
		return nil
	}
	v, err := jsonpath.Get(path, map[string]interface{}(doc))
	if err != nil {
		return nil
	}
	items, _ := v.([]interface{})
	return items
}

func keyOf(v interface{}) (artifact.Key, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return artifact.Key{}, false
	}
	typ, _ := obj["type"].(string)
	value, _ := obj["value"].(string)
	return artifact.NewKey(typ, value)
}
