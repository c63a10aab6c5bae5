package restclient

import (
	"context"

	"RagBot/app/utils/restclient"
)

var _ Interface = &restclient.RestClient{}

// Interface is the JSON POST surface the model and embeddings backends use.
type Interface interface {
	Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error)
}
