//go:build windows

package printer

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	gdi32 = windows.NewLazySystemDLL("gdi32.dll")

	procCreateDCW     = gdi32.NewProc("CreateDCW")
	procDeleteDC      = gdi32.NewProc("DeleteDC")
	procGetDeviceCaps = gdi32.NewProc("GetDeviceCaps")
	procStartDocW     = gdi32.NewProc("StartDocW")
	procEndDoc        = gdi32.NewProc("EndDoc")
	procStartPage     = gdi32.NewProc("StartPage")
	procEndPage       = gdi32.NewProc("EndPage")
	procStretchDIBits = gdi32.NewProc("StretchDIBits")
)

const (
	capHorzRes = 8
	capVertRes = 10

	biRGB        = 0
	dibRGBColors = 0
	srcCopy      = 0x00CC0020

	gdiError = 0xFFFFFFFF
)

type docInfoW struct {
	cbSize       int32
	lpszDocName  *uint16
	lpszOutput   *uint16
	lpszDatatype *uint16
	fwType       uint32
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// gdiDevice drives a printer through a GDI printer device context.
type gdiDevice struct {
	hdc uintptr
}

// NewPlatformDevice returns a fresh GDI device. Each job gets its own.
func NewPlatformDevice() (Device, error) {
	return &gdiDevice{}, nil
}

func (d *gdiDevice) Open(ctx context.Context, printerName string) error {
	if d.hdc != 0 {
		return fmt.Errorf("device already open")
	}

	driver, err := windows.UTF16PtrFromString("WINSPOOL")
	if err != nil {
		return err
	}
	name, err := windows.UTF16PtrFromString(printerName)
	if err != nil {
		return err
	}

	hdc, _, lastErr := procCreateDCW.Call(
		uintptr(unsafe.Pointer(driver)),
		uintptr(unsafe.Pointer(name)),
		0,
		0,
	)
	if hdc == 0 {
		return fmt.Errorf("CreateDC failed for %q: %v", printerName, lastErr)
	}
	d.hdc = hdc
	return nil
}

func (d *gdiDevice) PrintableArea() (int, int, error) {
	if d.hdc == 0 {
		return 0, 0, fmt.Errorf("device not open")
	}
	w, _, _ := procGetDeviceCaps.Call(d.hdc, capHorzRes)
	h, _, _ := procGetDeviceCaps.Call(d.hdc, capVertRes)
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("GetDeviceCaps reported a zero printable area")
	}
	return int(w), int(h), nil
}

func (d *gdiDevice) StartDoc(label string) error {
	name, err := windows.UTF16PtrFromString(label)
	if err != nil {
		return err
	}
	di := docInfoW{lpszDocName: name}
	di.cbSize = int32(unsafe.Sizeof(di))

	ret, _, lastErr := procStartDocW.Call(d.hdc, uintptr(unsafe.Pointer(&di)))
	if int32(ret) <= 0 {
		return fmt.Errorf("StartDoc failed: %v", lastErr)
	}
	return nil
}

func (d *gdiDevice) StartPage() error {
	ret, _, lastErr := procStartPage.Call(d.hdc)
	if int32(ret) <= 0 {
		return fmt.Errorf("StartPage failed: %v", lastErr)
	}
	return nil
}

func (d *gdiDevice) Blit(dib []byte, width, height int, dest Rect) error {
	if len(dib) == 0 {
		return fmt.Errorf("empty bitmap")
	}

	hdr := bitmapInfoHeader{
		Width:       int32(width),
		Height:      int32(height), // positive height: bottom-up rows
		Planes:      1,
		BitCount:    24,
		Compression: biRGB,
	}
	hdr.Size = uint32(unsafe.Sizeof(hdr))

	ret, _, lastErr := procStretchDIBits.Call(
		d.hdc,
		uintptr(dest.X), uintptr(dest.Y), uintptr(dest.W), uintptr(dest.H),
		0, 0, uintptr(width), uintptr(height),
		uintptr(unsafe.Pointer(&dib[0])),
		uintptr(unsafe.Pointer(&hdr)),
		dibRGBColors,
		srcCopy,
	)
	if uint32(ret) == gdiError || int32(ret) == 0 {
		return fmt.Errorf("StretchDIBits failed: %v", lastErr)
	}
	return nil
}

func (d *gdiDevice) EndPage() error {
	ret, _, lastErr := procEndPage.Call(d.hdc)
	if int32(ret) <= 0 {
		return fmt.Errorf("EndPage failed: %v", lastErr)
	}
	return nil
}

func (d *gdiDevice) EndDoc() error {
	ret, _, lastErr := procEndDoc.Call(d.hdc)
	if int32(ret) <= 0 {
		return fmt.Errorf("EndDoc failed: %v", lastErr)
	}
	return nil
}

func (d *gdiDevice) Close() error {
	if d.hdc == 0 {
		return nil
	}
	ret, _, lastErr := procDeleteDC.Call(d.hdc)
	d.hdc = 0
	if ret == 0 {
		return fmt.Errorf("DeleteDC failed: %v", lastErr)
	}
	return nil
}
