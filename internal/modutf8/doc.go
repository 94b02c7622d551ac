// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package modutf8 decodes length-prefixed "modified UTF-8" strings:
// the platform variant that encodes U+0000 as two bytes and never
// emits a 4-byte sequence for codepoints above the BMP. Standard
// library unicode/utf8 assumes real UTF-8 and would misdecode the
// U+0000 case, so this narrow helper exists the same way the teacher
// package factors byte-order selection into internal/bo.
package modutf8
