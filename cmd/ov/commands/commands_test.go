package commands

import (
	"strings"
	"testing"

	"opvault/pkg/track"

	"github.com/stretchr/testify/assert"
)

func TestTrackLine(t *testing.T) {
	assert.Equal(t, "✅ src/main.go: tracked", trackLine("src/main.go", track.OutcomeTracked))
	assert.Equal(t, "⚠️  .env: ignored", trackLine(".env", track.OutcomeIgnored))
	// 稀疏排除的结论必须带原因，不能跟 ignored 混为一谈
	assert.Equal(t, "⚠️  outside/x.go: excluded by sparse patterns",
		trackLine("outside/x.go", track.OutcomeExcluded))
}

func TestHeadLine(t *testing.T) {
	id := strings.Repeat("ab", 32)

	plain := headLine(id, "add parser", false, false, false)
	assert.Equal(t, "abababababab  add parser", plain)

	// 空描述有占位符，短 id 后的标记按固定顺序排列
	full := headLine(id, "", true, true, true)
	assert.Contains(t, full, "(no description)")
	assert.Contains(t, full, "⚠️ (conflict)")
	assert.Contains(t, full, "(discardable)")
	assert.Contains(t, full, "(working copy)")
}
