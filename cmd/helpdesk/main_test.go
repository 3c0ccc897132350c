package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig creates an offline configuration rooted in a temp dir: the
// mock LLM, general-knowledge search and file memory.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "it"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "it", "passwords.md"),
		[]byte("Reset your password from the self-service portal."), 0o644))

	cfg := fmt.Sprintf(`llm: mock
memory:
  backend: file
  dir: %s
knowledge:
  data_dir: %s
  index_dir: %s
search:
  provider: llm
  cache_ttl: 0
log:
  level: error
%s`, filepath.Join(root, "memory"), data, filepath.Join(root, "index"), extra)
	path := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskRecordsMemory(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := run(t, "", "-c", cfgPath, "ask", "How", "do", "I", "reset", "my", "password?")
	require.NoError(t, err)
	assert.Contains(t, out, "Agents: ")
	assert.Contains(t, out, "Reasoning: ")

	out, err = run(t, "", "-c", cfgPath, "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "user: How do I reset my password?")
	assert.Contains(t, out, "assistant: ")

	out, err = run(t, "", "-c", cfgPath, "memory", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Conversation history cleared.\n", out)

	out, err = run(t, "", "-c", cfgPath, "memory", "show")
	require.NoError(t, err)
	assert.Equal(t, "No conversation history.\n", out)
}

func TestAskJSONAndUser(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := run(t, "", "-c", cfgPath, "-u", "alice", "ask", "--json", "What is the capital of France?")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res["agents"])
	assert.Contains(t, res, "responseSummary")

	out, err = run(t, "", "-c", cfgPath, "memory", "show")
	require.NoError(t, err)
	assert.Equal(t, "No conversation history.\n", out, "alice's turn must not land in the default user's memory")

	out, err = run(t, "", "-c", cfgPath, "--user", "alice", "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "What is the capital of France?")
}

func TestAskRequiresQuestion(t *testing.T) {
	_, err := run(t, "", "-c", writeConfig(t, ""), "ask")
	assert.Error(t, err)
}

func TestChatSession(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, err := run(t, "hello\n/history\n/quit\n", "-c", cfgPath, "chat", "--show-routing")
	require.NoError(t, err)
	assert.Contains(t, out, "Helpdesk is ready.")
	assert.Contains(t, out, "Assistant: ")
	assert.Contains(t, out, "You: hello\n")
}

func TestIndex(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, err := run(t, "", "-c", cfgPath, "index")
	require.NoError(t, err)
	assert.Equal(t, "IT: 1 chunks\nHR: 0 chunks\nFINANCE: 0 chunks\n", out)

	out, err = run(t, "", "-c", cfgPath, "index", "it")
	require.NoError(t, err)
	assert.Equal(t, "IT: 1 chunks\n", out)

	_, err = run(t, "", "-c", cfgPath, "index", "legal")
	assert.ErrorContains(t, err, "unknown domain agent")
}

func TestSQLiteMemoryBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mem", "memory.db")
	cfgPath := writeConfig(t, "")
	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	cfg := strings.Replace(string(raw), "backend: file", "backend: sqlite\n  path: "+dbPath, 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, err = run(t, "", "-c", cfgPath, "ask", "Where is the VPN guide?")
	require.NoError(t, err)
	assert.FileExists(t, dbPath)

	out, err := run(t, "", "-c", cfgPath, "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Where is the VPN guide?")
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "")
	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	cfg := strings.Replace(string(raw), "backend: file", "backend: redis", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, err = run(t, "", "-c", cfgPath, "memory", "show")
	assert.ErrorContains(t, err, "unknown memory backend")
}

func TestUnknownEmbeddingProvider(t *testing.T) {
	cfgPath := writeConfig(t, "embedding:\n  provider: word2vec\n")
	_, err := run(t, "", "-c", cfgPath, "index")
	assert.ErrorContains(t, err, "unknown embedding provider")
}
