package vm

// loader.go reads a raw program image into memory.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrImageLoad is returned when an image file cannot be opened or read.
var ErrImageLoad = fmt.Errorf("vm: image load error")

// LoadImage reads the image file at path into memory. The first 16 bits of
// the file, big-endian, are the origin address; the remainder is a
// big-endian sequence of words loaded starting at that address. At most
// 0x10000-origin words are loaded; any excess bytes are ignored. It returns
// the origin address and the number of words loaded.
func (vm *LC3) LoadImage(path string) (Word, uint16, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %w", ErrImageLoad, path, err)
	}
	defer file.Close()

	var origin uint16

	if err := binary.Read(file, binary.BigEndian, &origin); err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %w", ErrImageLoad, path, err)
	}

	addr := Word(origin)
	max := int(0x10000 - int(addr))

	var count int

	for count < max {
		var word uint16

		if err := binary.Read(file, binary.BigEndian, &word); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}

			return addr, uint16(count), fmt.Errorf("%w: %s: %w", ErrImageLoad, path, err)
		}

		vm.Mem.Write(addr, Word(word))
		addr++
		count++
	}

	vm.log.Debug("loaded image", "path", path, "origin", Word(origin), "words", count)

	return Word(origin), uint16(count), nil
}
