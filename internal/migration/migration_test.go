package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunnerVersion(t *testing.T) {
	var m Migrator = NewRunner()
	assert.Equal(t, "1.0.0", m.Version())
}
