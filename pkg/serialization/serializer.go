// Package serialization provides flexible serialization for journal exports
// PRINCIPLES:
// - KISS: Simple interface with multiple codec implementations
// - DRY: Reusable across journal archives and wire payloads
// - SOLID: Interface segregation for different serializers
package serialization

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec interface for payload encoding
// PRINCIPLES:
// - ISP: Simple interface with ≤5 methods
// - SRP: Single responsibility for encoding
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// CompressionType represents compression algorithms
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// Config holds serialization settings
type Config struct {
	Codec       Codec
	Compression CompressionType
	EncryptKey  []byte // AES-256 key (32 bytes)
}

// Serializer provides complete serialization with compression and encryption
// PRINCIPLES:
// - KISS: Simple interface hiding complex operations
// - SRP: Single responsibility for complete serialization pipeline
type Serializer struct {
	config Config
}

// NewSerializer creates a new serializer with configuration
func NewSerializer(config Config) *Serializer {
	return &Serializer{config: config}
}

// CodecName reports the configured codec name, used for export metadata
func (s *Serializer) CodecName() string {
	if s.config.Codec == nil {
		return ""
	}
	return s.config.Codec.Name()
}

// Serialize converts data through the full pipeline: encode -> compress -> encrypt
func (s *Serializer) Serialize(v any) ([]byte, error) {
	// Step 1: Encode with codec
	data, err := s.config.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	// Step 2: Compress if configured
	if s.config.Compression != CompressionNone {
		data, err = s.compress(data)
		if err != nil {
			return nil, fmt.Errorf("compression failed: %w", err)
		}
	}

	// Step 3: Encrypt if key provided
	if len(s.config.EncryptKey) > 0 {
		data, err = s.encrypt(data)
		if err != nil {
			return nil, fmt.Errorf("encryption failed: %w", err)
		}
	}

	return data, nil
}

// Deserialize converts data through the reverse pipeline: decrypt -> decompress -> decode
func (s *Serializer) Deserialize(data []byte, v any) error {
	var err error

	// Step 1: Decrypt if key provided
	if len(s.config.EncryptKey) > 0 {
		data, err = s.decrypt(data)
		if err != nil {
			return fmt.Errorf("decryption failed: %w", err)
		}
	}

	// Step 2: Decompress if configured
	if s.config.Compression != CompressionNone {
		data, err = s.decompress(data)
		if err != nil {
			return fmt.Errorf("decompression failed: %w", err)
		}
	}

	// Step 3: Decode with codec
	if err := s.config.Codec.Decode(data, v); err != nil {
		return fmt.Errorf("decoding failed: %w", err)
	}

	return nil
}

// compress applies the configured compression
func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionGzip:
		return s.compressGzip(data)
	case CompressionZstd:
		return s.compressZstd(data)
	default:
		return data, nil
	}
}

// decompress reverses the configured compression
func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.config.Compression {
	case CompressionGzip:
		return s.decompressGzip(data)
	case CompressionZstd:
		return s.decompressZstd(data)
	default:
		return data, nil
	}
}

func (s *Serializer) compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *Serializer) decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (s *Serializer) compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

func (s *Serializer) decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}

// encrypt applies AES-GCM with a random nonce prepended to the ciphertext
func (s *Serializer) encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.config.EncryptKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

// decrypt expects the nonce at the front of the ciphertext
func (s *Serializer) decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.config.EncryptKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// JSONCodec implements JSON serialization
type JSONCodec struct{}

// NewJSONCodec creates a JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}

// MsgPackCodec implements MessagePack serialization, compact for archived journals
type MsgPackCodec struct{}

// NewMsgPackCodec creates a MessagePack codec
func NewMsgPackCodec() *MsgPackCodec {
	return &MsgPackCodec{}
}

func (c *MsgPackCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (c *MsgPackCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (c *MsgPackCodec) Name() string {
	return "msgpack"
}

// DefaultSerializer returns a serializer with recommended export settings
func DefaultSerializer() *Serializer {
	return NewSerializer(Config{
		Codec:       NewMsgPackCodec(),
		Compression: CompressionZstd,
	})
}
