package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const maxCallerDepth = 15

var sourceRoot string

// frames from these paths are never reported as the caller
var skippedSources = []string{"gorm.io"}

func init() {
	_, file, _, _ := runtime.Caller(0)

	// utils/source.go -> module root
	sourceRoot = filepath.Dir(filepath.Dir(file)) + string(filepath.Separator)
}

// FileWithLineNum returns file:line of the first caller outside of this
// module. Test files always count as callers.
func FileWithLineNum() string {
	// skip ourselves and our immediate caller
	for i := 2; i < maxCallerDepth; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		if reportable(file) {
			return file + ":" + strconv.Itoa(line)
		}
	}

	return ""
}

func reportable(file string) bool {
	if strings.HasSuffix(file, "_test.go") {
		return true
	}

	if strings.HasPrefix(file, sourceRoot) {
		return false
	}

	for _, skip := range skippedSources {
		if strings.Contains(file, skip) {
			return false
		}
	}

	return true
}
