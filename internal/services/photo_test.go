package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestInlinePhotoStore_KeepsPayload(t *testing.T) {
	got, err := InlinePhotoStore{}.Store(context.Background(), "id", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", got)
}

func TestS3PhotoStore_UploadsDataURL(t *testing.T) {
	client := &fakeS3{}
	store := NewS3PhotoStoreWithClient(client, "moods", "eu-west-1", "")

	got, err := store.Store(context.Background(), "abc", "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)

	assert.Equal(t, "https://moods.s3.eu-west-1.amazonaws.com/checkins/abc.png", got)
	require.NotNil(t, client.input)
	assert.Equal(t, "moods", aws.ToString(client.input.Bucket))
	assert.Equal(t, "checkins/abc.png", aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("hello"), client.body)
}

func TestS3PhotoStore_CustomEndpointURL(t *testing.T) {
	store := NewS3PhotoStoreWithClient(&fakeS3{}, "moods", "us-east-1", "http://minio:9000/")

	got, err := store.Store(context.Background(), "abc", "data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/moods/checkins/abc.jpg", got)
}

func TestS3PhotoStore_PassesThroughReferences(t *testing.T) {
	client := &fakeS3{}
	store := NewS3PhotoStoreWithClient(client, "moods", "us-east-1", "")

	got, err := store.Store(context.Background(), "abc", "https://elsewhere/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere/p.jpg", got)
	assert.Nil(t, client.input)
}

func TestS3PhotoStore_Errors(t *testing.T) {
	store := NewS3PhotoStoreWithClient(&fakeS3{}, "moods", "us-east-1", "")
	ctx := context.Background()

	_, err := store.Store(ctx, "a", "data:image/png;base64")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = store.Store(ctx, "a", "data:text/plain,hello")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = store.Store(ctx, "a", "data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	failing := NewS3PhotoStoreWithClient(&fakeS3{err: errors.New("denied")}, "moods", "us-east-1", "")
	_, err = failing.Store(ctx, "a", "data:image/png;base64,aGVsbG8=")
	assert.ErrorContains(t, err, "failed to upload photo")
}
