package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ext    string
		langID string
		jsx    bool
		ts     bool
	}{
		{
			name:   "plain javascript",
			source: "const x = 1;\nconsole.log(x + 2);",
			ext:    ".js",
			langID: "javascript",
		},
		{
			name:   "hook plus markup",
			source: "const [x, setX] = useState(0); return <div>{x}</div>;",
			ext:    ".jsx",
			langID: "javascriptreact",
			jsx:    true,
		},
		{
			name:   "interface only",
			source: "interface Foo { x: number }",
			ext:    ".ts",
			langID: "typescript",
			ts:     true,
		},
		{
			name:   "typed component",
			source: "interface Props { label: string }\nconst Tag = (p: Props) => <span className=\"tag\">{p.label}</span>;",
			ext:    ".tsx",
			langID: "typescriptreact",
			jsx:    true,
			ts:     true,
		},
		{
			name:   "comparison is not jsx",
			source: "if (a < 5 && b > (c)) { doWork(); }",
			ext:    ".js",
			langID: "javascript",
		},
		{
			name:   "generic call is typescript not jsx",
			source: "const items = parse<number>(raw);",
			ext:    ".ts",
			langID: "typescript",
			ts:     true,
		},
		{
			name:   "short content always javascript",
			source: "<A/>",
			ext:    ".js",
			langID: "javascript",
		},
		{
			name:   "empty",
			source: "",
			ext:    ".js",
			langID: "javascript",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := Detect(tt.source)
			assert.Equal(t, tt.ext, det.Extension)
			assert.Equal(t, tt.langID, det.LanguageID)
			assert.Equal(t, tt.jsx, det.HasJSX)
			assert.Equal(t, tt.ts, det.HasTypeScript)
		})
	}
}

func TestDetectFromFilename(t *testing.T) {
	assert.Equal(t, ".tsx", DetectFromFilename("App.tsx").Extension)
	assert.Equal(t, ".ts", DetectFromFilename("util.ts").Extension)
	assert.Equal(t, ".jsx", DetectFromFilename("widget.JSX").Extension)
	assert.Equal(t, ".js", DetectFromFilename("index.js").Extension)
	assert.Equal(t, ".js", DetectFromFilename("README.md").Extension)
}

func TestFromLanguageID(t *testing.T) {
	det, ok := FromLanguageID("typescriptreact")
	assert.True(t, ok)
	assert.True(t, det.HasJSX)
	assert.True(t, det.HasTypeScript)

	_, ok = FromLanguageID("python")
	assert.False(t, ok)
}
