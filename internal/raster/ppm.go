package raster

import (
	"bufio"
	"fmt"
	"io"
)

// decodePPM reads a binary PPM (P6) image into a Buffer. pdftoppm emits P6
// with an 8-bit color depth; anything else is rejected.
func decodePPM(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)

	magic, err := ppmToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P6" {
		return nil, fmt.Errorf("unsupported PPM magic %q", magic)
	}

	var dims [3]int
	for i := range dims {
		tok, err := ppmToken(br)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(tok, "%d", &dims[i]); err != nil {
			return nil, fmt.Errorf("bad PPM header field %q", tok)
		}
	}

	width, height, maxVal := dims[0], dims[1], dims[2]
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("bad PPM dimensions %dx%d", width, height)
	}
	if maxVal != 255 {
		return nil, fmt.Errorf("unsupported PPM color depth %d", maxVal)
	}

	pix := make([]byte, width*height*3)
	if _, err := io.ReadFull(br, pix); err != nil {
		return nil, fmt.Errorf("short PPM pixel data: %w", err)
	}

	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// ppmToken returns the next whitespace-delimited header token, skipping
// '#' comments. The single whitespace byte separating the header from the
// pixel data is consumed along with the last token.
func ppmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	inComment := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("truncated PPM header: %w", err)
		}
		switch {
		case inComment:
			if b == '\n' {
				inComment = false
			}
		case b == '#':
			inComment = true
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
