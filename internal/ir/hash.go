package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainBundle = "flowgen/bundle/v1"
	DomainFlow   = "flowgen/flow/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BundleID computes the content-addressed ID of a bundle. The ID field itself
// is ignored, so BundleID(b) is stable whether or not b.ID is set.
func BundleID(b *ArtifactBundle) (string, error) {
	obj := map[string]any{
		"generator_version": GeneratorVersion,
		"page_name":         b.PageName,
		"test_name":         b.TestName,
		"locators_file":     b.LocatorsFile,
		"page_file":         b.PageFile,
		"test_file":         b.TestFile,
		"locators_module":   b.LocatorsModule,
		"page_module":       b.PageObjectModule,
		"test_module":       b.TestSpecModule,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BundleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBundle, canonical), nil
}

// FlowHash computes the content hash of a recorded step list.
func FlowHash(steps []RecordedStep) (string, error) {
	list := make([]any, len(steps))
	for i, s := range steps {
		step := map[string]any{
			"ordinal":      s.Ordinal,
			"action":       string(s.Action),
			"target_label": s.TargetLabel,
			"locator":      s.Locator,
			"value":        s.Value,
			"page_label":   s.PageLabel,
		}
		if len(s.Alternatives) > 0 {
			step["alternatives"] = s.Alternatives
		}
		list[i] = step
	}

	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("FlowHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFlow, canonical), nil
}

// MustBundleID is like BundleID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBundleID(b *ArtifactBundle) string {
	id, err := BundleID(b)
	if err != nil {
		panic(err)
	}
	return id
}
