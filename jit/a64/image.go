package a64

import "encoding/binary"

// Image is a flat little-endian code image mapped at Base.
type Image struct {
	Base uint64
	Data []byte
}

func NewImage(base uint64, data []byte) *Image {
	return &Image{Base: base, Data: data}
}

// ReadCode returns the word at vaddr. Addresses outside the image read as
// zero, which is a permanently undefined encoding.
func (img *Image) ReadCode(vaddr uint64) uint32 {
	if vaddr < img.Base || vaddr-img.Base+4 > uint64(len(img.Data)) {
		return 0
	}
	off := vaddr - img.Base
	return binary.LittleEndian.Uint32(img.Data[off : off+4])
}

// Contains reports whether the word at vaddr lies inside the image.
func (img *Image) Contains(vaddr uint64) bool {
	return vaddr >= img.Base && vaddr-img.Base+4 <= uint64(len(img.Data))
}

func (img *Image) End() uint64 { return img.Base + uint64(len(img.Data)) }
