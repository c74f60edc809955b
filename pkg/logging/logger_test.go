package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("scan", &buf)

	l.Infof("found %d fields", 3)
	l.Warnf("skipped %s", "x")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[scan] [INFO] found 3 fields")
	assert.Contains(t, lines[1], "[scan] [WARN] skipped x")
}

func TestWith_SharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriterLogger("root", &buf)
	child := root.With("writer")

	child.Errorf("boom")
	root.Debugf("ok")

	assert.Equal(t, "writer", child.Component())
	assert.Equal(t, "root", root.Component())
	assert.Contains(t, buf.String(), "[writer] [ERROR] boom")
	assert.Contains(t, buf.String(), "[root] [DEBUG] ok")
	assert.Equal(t, root.SessionID(), child.SessionID())
}

func TestOrDiscard(t *testing.T) {
	l := OrDiscard(nil, "x")
	assert.NotNil(t, l)
	l.Infof("dropped")
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}
