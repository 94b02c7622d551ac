// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/serialscan"
)

func TestExitCodeForSafeVerdict(t *testing.T) {
	require.Equal(t, exitSafe, exitCodeFor(serialscan.Verdict{Safe: true}))
}

func TestExitCodeForDosVerdictsIsUnsafeNotScanError(t *testing.T) {
	require.Equal(t, exitUnsafe, exitCodeFor(serialscan.Verdict{Safe: false, Reason: serialscan.KindArrayTooLarge}))
	require.Equal(t, exitUnsafe, exitCodeFor(serialscan.Verdict{Safe: false, Reason: serialscan.KindReferenceTooComplex}))
}

func TestExitCodeForParseFailureIsScanError(t *testing.T) {
	require.Equal(t, exitScanError, exitCodeFor(serialscan.Verdict{Safe: false, Reason: serialscan.KindCorruptedStream}))
}

func TestRunMissingFileIsScanError(t *testing.T) {
	code := run([]string{"scan", filepath.Join(t.TempDir(), "does-not-exist.bin")})
	require.Equal(t, exitScanError, code)
}

func TestRunHeaderOnlyStreamIsSafe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xAC, 0xED, 0x00, 0x05}, 0o600))

	code := run([]string{"scan", "--no-color", "--quiet", path})
	require.Equal(t, exitSafe, code)
}

func TestRunBadMagicIsScanError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x00, 0x00, 0x00}, 0o600))

	code := run([]string{"scan", "--quiet", "--json", path})
	require.Equal(t, exitScanError, code)
}
