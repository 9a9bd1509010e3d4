package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldString(t *testing.T) {
	object := map[string]interface{}{
		"spec": map[string]interface{}{
			"client": map[string]interface{}{
				"password": "secret",
			},
			"count": int64(3),
		},
	}

	assert.Equal(t, "secret", fieldString(object, "spec.client.password", ""))
	assert.Equal(t, "fallback", fieldString(object, "spec.client.missing", "fallback"))
	assert.Equal(t, "fallback", fieldString(object, "spec.count", "fallback"))
	assert.Equal(t, "fallback", fieldString(object, "missing.path.entirely", "fallback"))
}

func TestFieldInt(t *testing.T) {
	object := map[string]interface{}{
		"status": map[string]interface{}{
			"sessions": map[string]interface{}{
				"allocated": int64(7),
			},
			"phase": "Running",
		},
	}

	assert.Equal(t, int64(7), fieldInt(object, "status.sessions.allocated", 0))
	assert.Equal(t, int64(42), fieldInt(object, "status.sessions.missing", 42))
	assert.Equal(t, int64(42), fieldInt(object, "status.phase", 42))
}

func TestFieldStringSlice(t *testing.T) {
	object := map[string]interface{}{
		"spec": map[string]interface{}{
			"tenants": []interface{}{"team-*", "lab-*"},
			"mixed":   []interface{}{"team-a", int64(1)},
		},
	}

	assert.Equal(t, []string{"team-*", "lab-*"}, fieldStringSlice(object, "spec.tenants"))
	assert.Nil(t, fieldStringSlice(object, "spec.missing"))
	assert.Nil(t, fieldStringSlice(object, "spec.mixed"))
}

func TestFieldStringMap(t *testing.T) {
	object := map[string]interface{}{
		"status": map[string]interface{}{
			"labels": map[string]interface{}{
				"difficulty": "beginner",
			},
		},
	}

	assert.Equal(t, map[string]string{"difficulty": "beginner"}, fieldStringMap(object, "status.labels"))
	assert.Nil(t, fieldStringMap(object, "status.missing"))
}

func TestFieldCapacity(t *testing.T) {
	object := map[string]interface{}{
		"spec": map[string]interface{}{
			"capped":    int64(10),
			"unlimited": int64(0),
		},
	}

	capacity := fieldCapacity(object, "spec.capped")
	if assert.NotNil(t, capacity) {
		assert.Equal(t, 10, *capacity)
	}

	// Zero and absent both mean no capacity ceiling.
	assert.Nil(t, fieldCapacity(object, "spec.unlimited"))
	assert.Nil(t, fieldCapacity(object, "spec.missing"))
}
