package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/logger"
)

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newFake() *fakeS3 {
	return &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
}

func TestUpload(t *testing.T) {
	client := newFake()
	store := NewStore(client, config.StorageConfig{Bucket: "clinic", PublicURL: "https://cdn.example/"}, logger.Nop())

	obj, err := store.Upload(context.Background(), FolderInventory, &model.Photo{
		Filename:    "Shampoo.PNG",
		ContentType: "image/png",
		Body:        []byte("png-bytes"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "inventory/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "https://cdn.example/"+obj.Key, obj.URL)
	assert.Equal(t, []byte("png-bytes"), client.puts[obj.Key])
	assert.Equal(t, "image/png", client.types[obj.Key])
}

func TestUpload_DefaultURLAndErrors(t *testing.T) {
	client := newFake()
	store := NewStore(client, config.StorageConfig{Bucket: "clinic", Region: "ap-southeast-1"}, logger.Nop())
	assert.Equal(t, "https://clinic.s3.ap-southeast-1.amazonaws.com", store.publicURL)

	_, err := store.Upload(context.Background(), FolderPets, &model.Photo{Filename: "x.jpg"})
	assert.Error(t, err)

	client.err = errors.New("access denied")
	_, err = store.Upload(context.Background(), FolderPets, &model.Photo{Filename: "x.jpg", Body: []byte("a")})
	assert.ErrorContains(t, err, "access denied")
}

func TestDelete(t *testing.T) {
	client := newFake()
	store := NewStore(client, config.StorageConfig{Bucket: "clinic"}, logger.Nop())

	require.NoError(t, store.Delete(context.Background(), ""))
	require.NoError(t, store.Delete(context.Background(), "inventory/a.png"))
	assert.Equal(t, []string{"inventory/a.png"}, client.deleted)
}
