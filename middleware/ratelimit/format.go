// utilitário pequeno para formatação rápida/consistente de valores numéricos em headers.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }
