// Package textutil provides filesystem-name sanitization shared by the
// fixer and scanner. Transforms target the most restrictive supported
// filesystem (Windows naming rules) so renamed folders stay portable.
package textutil
