package main

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// UnpackIfArchive распаковывает zip/gz/lz4 рядом с архивом и удаляет
// оригинал. Для не-архивов возвращает путь без изменений.
func UnpackIfArchive(filePath string) (string, error) {
	switch filepath.Ext(filePath) {
	case ".zip":
		return unpackZip(filePath)
	case ".gz":
		return unpackStream(filePath, ".gz", func(f *os.File) (io.Reader, error) {
			return gzip.NewReader(f)
		})
	case ".lz4":
		return unpackStream(filePath, ".lz4", func(f *os.File) (io.Reader, error) {
			return lz4.NewReader(f), nil
		})
	}
	return filePath, nil
}

// unpackZip достает самый большой файл архива, остальное игнорируется
func unpackZip(filePath string) (string, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var largest *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}
	if largest == nil {
		return "", fmt.Errorf("zip %s has no files", filePath)
	}

	destPath := filepath.Join(filepath.Dir(filePath), filepath.Base(largest.Name))
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	rc, err := largest.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	if _, err = io.Copy(out, rc); err != nil {
		return "", err
	}

	if err = os.Remove(filePath); err != nil {
		return "", err
	}
	return destPath, nil
}

func unpackStream(filePath, ext string, open func(*os.File) (io.Reader, error)) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	src, err := open(file)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", ext, err)
	}

	destPath := strings.TrimSuffix(filePath, ext)
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err = io.Copy(out, src); err != nil {
		return "", err
	}
	if err = os.Remove(filePath); err != nil {
		return "", err
	}
	return destPath, nil
}
