package bits

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// ParseISO7 reads 7-bit characters from start for count characters.
func (b *Buffer) ParseISO7(start, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		offset := start + i*7
		if offset+7 > b.size {
			break
		}
		c := b.GetIntRange(offset, offset+6)
		if c == 0 {
			continue
		}
		sb.WriteByte(byte(c))
	}
	return sb.String()
}

// ParseISO8 reads 8-bit latin-1 characters from start for count characters.
func (b *Buffer) ParseISO8(start, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		offset := start + i*8
		if offset+8 > b.size {
			break
		}
		c := b.GetByte(offset)
		if c == 0 {
			continue
		}
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// ParseUTF8 decodes count bytes starting at start as UTF-8. Invalid
// sequences are replaced with U+FFFD.
func (b *Buffer) ParseUTF8(start, count int) string {
	raw := b.rawBytes(start, count)
	if utf8.Valid(raw) {
		return strings.TrimRight(string(raw), "\x00")
	}
	return strings.TrimRight(strings.ToValidUTF8(string(raw), "�"), "\x00")
}

// ParseGB2312 decodes count bytes starting at start as GB2312 (EUC-CN).
func (b *Buffer) ParseGB2312(start, count int) string {
	raw := b.rawBytes(start, count)
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return b.ParseISO8(start, count)
	}
	return strings.TrimRight(string(decoded), "\x00")
}

// ParseUTF16 decodes count big endian UTF-16 code units starting at start.
func (b *Buffer) ParseUTF16(start, count int) string {
	raw := b.rawBytes(start, count*2)
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(decoded), "\x00")
}

// ParseBCD reads count binary coded decimal digits starting at start.
// Nibbles above 9 are rendered as hex digits.
func (b *Buffer) ParseBCD(start, count int) string {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < count; i++ {
		offset := start + i*4
		if offset+4 > b.size {
			break
		}
		sb.WriteByte(digits[b.GetIntRange(offset, offset+3)])
	}
	return sb.String()
}

func (b *Buffer) rawBytes(start, count int) []byte {
	raw := make([]byte, 0, count)
	for i := 0; i < count; i++ {
		offset := start + i*8
		if offset+8 > b.size {
			break
		}
		raw = append(raw, b.GetByte(offset))
	}
	return raw
}
