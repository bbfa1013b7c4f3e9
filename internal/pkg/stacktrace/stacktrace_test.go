package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/gostore/internal/pkg/goroutine.(*Manager).recover(0xc0000)
	/src/gostore/internal/pkg/goroutine/goroutine.go:83 +0x3a
panic({0x6b0, 0x7c1})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/shandysiswandi/gostore/internal/verification/usecase.(*Usecase).Issue(...)
	/src/gostore/internal/verification/usecase/issue.go:40
`)

	assert.Equal(t, []string{
		"internal/pkg/goroutine/goroutine.go:83",
		"internal/verification/usecase/issue.go:40",
	}, InternalPaths(stack))
}
