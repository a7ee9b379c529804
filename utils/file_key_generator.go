package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileKeyStrategy string

const (
	StrategyDateBased FileKeyStrategy = "date_based"
	StrategyUserBased FileKeyStrategy = "user_based"
)

// FileKeyGenerator builds bucket object keys for uploaded documents and
// their derived page images.
type FileKeyGenerator struct {
	strategy   FileKeyStrategy
	prefix     string
	maxNameLen int
}

func NewFileKeyGenerator(strategy FileKeyStrategy, prefix string) *FileKeyGenerator {
	return &FileKeyGenerator{
		strategy:   strategy,
		prefix:     prefix,
		maxNameLen: 50,
	}
}

func (fkg *FileKeyGenerator) GenerateFileKey(filename, userID string) string {
	switch fkg.strategy {
	case StrategyDateBased:
		return fkg.generateDateBasedKey(filename)
	case StrategyUserBased:
		return fkg.generateUserBasedKey(filename, userID)
	default:
		return fkg.generateTimestampUUIDKey(filename)
	}
}

// PageImageKey places derived page artifacts under their document's id,
// one object per 1-based page number.
func (fkg *FileKeyGenerator) PageImageKey(documentID string, pageNumber int, ext string) string {
	return fmt.Sprintf("%s/pages/%s/%05d%s", fkg.prefix, documentID, pageNumber, ext)
}

func (fkg *FileKeyGenerator) generateTimestampUUIDKey(filename string) string {
	timestamp := time.Now().Unix()
	uid := uuid.New().String()
	cleanName := fkg.cleanFilename(filename)

	return fmt.Sprintf("%s/%d_%s_%s", fkg.prefix, timestamp, uid, cleanName)
}

func (fkg *FileKeyGenerator) generateDateBasedKey(filename string) string {
	now := time.Now()
	uid := uuid.New().String()[:8]
	cleanName := fkg.cleanFilename(filename)

	return fmt.Sprintf("%s/%s/%s_%s", fkg.prefix, now.Format("2006/01/02"), uid, cleanName)
}

func (fkg *FileKeyGenerator) generateUserBasedKey(filename, userID string) string {
	timestamp := time.Now().Unix()
	uid := uuid.New().String()[:12]
	cleanName := fkg.cleanFilename(filename)

	// hash the user id so keys do not leak identities
	userHash := fkg.hashString(userID)[:8]

	return fmt.Sprintf("%s/users/%s/%d_%s_%s", fkg.prefix, userHash, timestamp, uid, cleanName)
}

func (fkg *FileKeyGenerator) cleanFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	baseName := strings.TrimSuffix(filename, filepath.Ext(filename))

	cleanBase := sanitizeFilename(baseName)

	if len(cleanBase) > fkg.maxNameLen {
		cleanBase = cleanBase[:fkg.maxNameLen]
	}
	if cleanBase == "" || cleanBase == "_" {
		cleanBase = "document"
	}

	return cleanBase + ext
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")

	dangerous := regexp.MustCompile(`[<>:"/\\|?*]`)
	name = dangerous.ReplaceAllString(name, "")

	unsafe := regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	name = unsafe.ReplaceAllString(name, "_")

	name = regexp.MustCompile(`[_\-.]{2,}`).ReplaceAllString(name, "_")
	return strings.Trim(name, "_-.")
}

func (fkg *FileKeyGenerator) hashString(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}
