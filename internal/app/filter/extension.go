package filter

import (
	"context"
	"strings"
)

// ExtensionFilterName is always the first filter of a chain.
const ExtensionFilterName = "extension"

// SupportedExtensions is the audio allow-list, lower-case with dot.
var SupportedExtensions = []string{".mp3", ".flac", ".wav", ".ogg"}

// ExtensionFilter keeps only files with a supported audio extension.
type ExtensionFilter struct {
	allowed map[string]struct{}
}

// NewExtensionFilter creates the allow-list filter.
func NewExtensionFilter() *ExtensionFilter {
	allowed := make(map[string]struct{}, len(SupportedExtensions))
	for _, ext := range SupportedExtensions {
		allowed[ext] = struct{}{}
	}
	return &ExtensionFilter{allowed: allowed}
}

func (f *ExtensionFilter) Name() string {
	return ExtensionFilterName
}

func (f *ExtensionFilter) Description() string {
	return "Keeps only .mp3, .flac, .wav and .ogg files (case-insensitive)"
}

func (f *ExtensionFilter) ReturnCodes() []string {
	return []string{"unsupported_extension"}
}

func (f *ExtensionFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *ExtensionFilter) AppliesTo(c Candidate) bool {
	return !c.IsDirectory
}

func (f *ExtensionFilter) Check(ctx context.Context, c Candidate) Result {
	if _, ok := f.allowed[strings.ToLower(c.Ext())]; !ok {
		return Reject("unsupported_extension")
	}
	return Accept()
}

func init() {
	Register(ExtensionFilterName, func() Filter {
		return NewExtensionFilter()
	})
}
