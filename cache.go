package agentics

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SignatureCache memoizes signature analysis (schema reflection and compilation) across Describe
// calls. Entries are keyed on the func type and the schema-affecting options, never on the func
// value, so two closures of the same type share an entry while each tool still calls its own func.
// Safe for concurrent use.
type SignatureCache struct {
	entries *lru.Cache[signatureKey, *signature]
}

type signatureKey struct {
	fnType      reflect.Type
	fingerprint string
}

// NewSignatureCache creates a cache holding at most size signatures.
func NewSignatureCache(size int) (*SignatureCache, error) {
	entries, err := lru.New[signatureKey, *signature](size)
	if err != nil {
		return nil, fmt.Errorf("signature cache: %w", err)
	}
	return &SignatureCache{entries: entries}, nil
}

// Describe is Describe with signature analysis served from the cache.
func (c *SignatureCache) Describe(fn any, opts ...ToolOption) (Tool, error) {
	return describe(c, fn, opts)
}

// Len returns the number of cached signatures.
func (c *SignatureCache) Len() int { return c.entries.Len() }

func (c *SignatureCache) signature(fnType reflect.Type, o toolOptions) (*signature, error) {
	fp, err := fingerprint(o)
	if err != nil {
		// Options that cannot be fingerprinted are analyzed without caching.
		return analyzeSignature(fnType, o)
	}
	key := signatureKey{fnType: fnType, fingerprint: fp}
	if sig, ok := c.entries.Get(key); ok {
		return sig, nil
	}
	sig, err := analyzeSignature(fnType, o)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, sig)
	return sig, nil
}

// fingerprint covers every option that changes the schema: parameter names, strictness,
// bound keys (not values) and defaults. The tool name is included because SignatureError
// messages carry it.
func fingerprint(o toolOptions) (string, error) {
	bound := make([]string, 0, len(o.bind))
	for k := range o.bind {
		bound = append(bound, k)
	}
	slices.Sort(bound)
	defaults, err := json.Marshal(o.defaults)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%s|%t|%s|%s",
		o.name, strings.Join(o.params, ","), o.strict, strings.Join(bound, ","), defaults), nil
}
