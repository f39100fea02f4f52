package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// UploadURL is a short-lived, write-only URL for one blob.
type UploadURL struct {
	URL       string    `json:"upload_url"`
	BlobName  string    `json:"blob_name"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer creates write-only SAS URLs signed with the account key.
type Issuer struct {
	account Account
	cred    *azblob.SharedKeyCredential
	ttl     time.Duration
	now     func() time.Time
	// allowHTTP permits http endpoints (Azurite).
	allowHTTP bool
}

// NewIssuer returns an Issuer. It fails when the account is missing or the
// key is not valid base64. Without a key the issuer is built but every
// IssueUploadURL returns ErrNotConfigured.
func NewIssuer(account Account, accountKey string, ttl time.Duration) (*Issuer, error) {
	if account.Name == "" || account.Container == "" {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	iss := &Issuer{
		account:   account,
		ttl:       ttl,
		now:       time.Now,
		allowHTTP: account.Endpoint != "",
	}
	if accountKey == "" {
		return iss, nil
	}
	cred, err := azblob.NewSharedKeyCredential(account.Name, accountKey)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid account key: %w", err)
	}
	iss.cred = cred
	return iss, nil
}

// Configured reports whether the issuer holds an account key.
func (i *Issuer) Configured() bool {
	return i.cred != nil
}

// Account returns the account the issuer signs for.
func (i *Issuer) Account() Account {
	return i.account
}

// IssueUploadURL returns a create/write-only SAS URL for blobName.
func (i *Issuer) IssueUploadURL(_ context.Context, blobName string) (UploadURL, error) {
	if i.cred == nil {
		return UploadURL{}, ErrNotConfigured
	}
	blobName = NormalizeBlobPath(i.account.Container, blobName)
	if blobName == "" {
		return UploadURL{}, ErrEmptyPath
	}

	now := i.now().UTC()
	expires := now.Add(i.ttl)
	protocol := sas.ProtocolHTTPS
	if i.allowHTTP {
		protocol = sas.ProtocolHTTPSandHTTP
	}

	values := sas.BlobSignatureValues{
		Protocol:      protocol,
		StartTime:     now.Add(-5 * time.Minute), // clock skew
		ExpiryTime:    expires,
		Permissions:   (&sas.BlobPermissions{Create: true, Write: true}).String(),
		ContainerName: i.account.Container,
		BlobName:      blobName,
	}
	qp, err := values.SignWithSharedKey(i.cred)
	if err != nil {
		return UploadURL{}, fmt.Errorf("storage: sign upload SAS: %w", err)
	}

	return UploadURL{
		URL:       i.account.BlobURL(blobName) + "?" + qp.Encode(),
		BlobName:  blobName,
		Method:    "PUT",
		ExpiresAt: expires,
	}, nil
}
