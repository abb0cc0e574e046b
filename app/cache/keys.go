package cache

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/highwayhash"
)

// hashKey seeds the fingerprint hash. Fixed so cache keys are stable across
// sessions; the cache holds no sensitive data.
var hashKey = []byte("gridview-image-cache-fingerprint")

// fingerprint hashes an arbitrary identity string to a short stable hex key.
func fingerprint(identity string) string {
	h, err := highwayhash.New128(hashKey)
	if err != nil {
		// New128 only fails on a bad key length; the key above is 32 bytes
		panic(err)
	}
	h.Write([]byte(identity))
	return hex.EncodeToString(h.Sum(nil))
}

// ImageKey is the cache key for a full fetched image.
func ImageKey(url string) string {
	return fingerprint("image|" + url)
}

// CropKey is the cache key for a server-side crop: source URL, the crop
// rectangle in source pixels, and the frame offset for video sources.
func CropKey(url string, left, top, right, bottom int, ms int64) string {
	return fingerprint(fmt.Sprintf("crop|%s|%d|%d|%d|%d|%d", url, left, top, right, bottom, ms))
}
