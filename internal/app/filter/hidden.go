package filter

import (
	"context"
	"strings"
)

// HiddenFileFilter skips dot-files and does not descend into dot-directories.
type HiddenFileFilter struct{}

func (f *HiddenFileFilter) Name() string {
	return "hidden_file_filter"
}

func (f *HiddenFileFilter) Description() string {
	return "Skips files and folders whose name starts with a dot"
}

func (f *HiddenFileFilter) ReturnCodes() []string {
	return []string{"hidden"}
}

func (f *HiddenFileFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *HiddenFileFilter) AppliesTo(c Candidate) bool {
	return true
}

func (f *HiddenFileFilter) Check(ctx context.Context, c Candidate) Result {
	if strings.HasPrefix(c.Name, ".") {
		return Reject("hidden")
	}
	return Accept()
}

func init() {
	Register("hidden_file_filter", func() Filter {
		return &HiddenFileFilter{}
	})
}
