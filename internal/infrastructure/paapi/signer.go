package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Signature Version 4 constants
const (
	Algorithm       = "AWS4-HMAC-SHA256"
	scopeTerminator = "aws4_request"
	keyPrefix       = "AWS4"

	// AmzDateFormat is the layout of the x-amz-date header
	AmzDateFormat = "20060102T150405Z"

	// DateStampFormat is the layout of the date component of the credential scope
	DateStampFormat = "20060102"
)

// CanonicalRequest holds the parts of an HTTP request that are covered by the signature.
// Header names are matched case-insensitively.
type CanonicalRequest struct {
	Method  string
	Path    string
	Query   string
	Headers map[string]string
	Payload []byte
}

// PayloadHash returns the hex-encoded SHA-256 of the exact request body
func (r *CanonicalRequest) PayloadHash() string {
	return hashHex(r.Payload)
}

// SignedHeaders returns the sorted, lower-cased, semicolon-separated header names
func (r *CanonicalRequest) SignedHeaders() string {
	return strings.Join(r.headerNames(), ";")
}

// String renders the canonical request
func (r *CanonicalRequest) String() string {
	normalized := make(map[string]string, len(r.Headers))
	for name, value := range r.Headers {
		normalized[strings.ToLower(strings.TrimSpace(name))] = canonicalHeaderValue(value)
	}

	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\n')
	b.WriteString(r.Path)
	b.WriteByte('\n')
	b.WriteString(r.Query)
	b.WriteByte('\n')
	for _, name := range r.headerNames() {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(normalized[name])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(r.SignedHeaders())
	b.WriteByte('\n')
	b.WriteString(r.PayloadHash())
	return b.String()
}

func (r *CanonicalRequest) headerNames() []string {
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
	}
	sort.Strings(names)
	return names
}

// canonicalHeaderValue trims the value and collapses runs of inner whitespace
func canonicalHeaderValue(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Signature is the result of signing one request
type Signature struct {
	Value         string
	SignedHeaders string
	Authorization string
}

// Signer computes AWS Signature Version 4 signatures for a fixed set of credentials,
// region and service. It holds no mutable state.
type Signer struct {
	accessKey string
	secretKey string
	region    string
	service   string
}

// NewSigner creates a signer for one credential scope
func NewSigner(accessKey, secretKey, region, service string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
		service:   service,
	}
}

// CredentialScope returns date/region/service/aws4_request
func (s *Signer) CredentialScope(dateStamp string) string {
	return strings.Join([]string{dateStamp, s.region, s.service, scopeTerminator}, "/")
}

// SigningKey derives the per-day signing key by chaining HMAC-SHA256 over
// the date stamp, region, service and terminator.
func (s *Signer) SigningKey(dateStamp string) []byte {
	kDate := hmacSHA256([]byte(keyPrefix+s.secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, s.region)
	kService := hmacSHA256(kRegion, s.service)
	return hmacSHA256(kService, scopeTerminator)
}

// StringToSign builds the string covered by the final HMAC
func (s *Signer) StringToSign(canonicalRequest, amzDate string) string {
	return strings.Join([]string{
		Algorithm,
		amzDate,
		s.CredentialScope(dateStampOf(amzDate)),
		hashHex([]byte(canonicalRequest)),
	}, "\n")
}

// Sign signs req at the timestamp amzDate (YYYYMMDDTHHMMSSZ)
func (s *Signer) Sign(req *CanonicalRequest, amzDate string) Signature {
	return s.SignCanonical(req.String(), req.SignedHeaders(), amzDate)
}

// SignCanonical signs an already rendered canonical request
func (s *Signer) SignCanonical(canonicalRequest, signedHeaders, amzDate string) Signature {
	dateStamp := dateStampOf(amzDate)
	sig := hex.EncodeToString(hmacSHA256(s.SigningKey(dateStamp), s.StringToSign(canonicalRequest, amzDate)))

	return Signature{
		Value:         sig,
		SignedHeaders: signedHeaders,
		Authorization: fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
			Algorithm, s.accessKey, s.CredentialScope(dateStamp), signedHeaders, sig),
	}
}

// dateStampOf returns the YYYYMMDD prefix of an x-amz-date timestamp
func dateStampOf(amzDate string) string {
	if len(amzDate) < len(DateStampFormat) {
		return amzDate
	}
	return amzDate[:len(DateStampFormat)]
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
