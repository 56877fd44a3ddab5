// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"

	"github.com/eventloc/locator/logging"
)

// DefaultAPIKeyDisplayName is the display name of the Maps key looked up through ADC.
const DefaultAPIKeyDisplayName = "Locator Geocoding Key"

// ErrNoProjectID is returned when the default credentials carry no project
// and none was configured.
var ErrNoProjectID = errors.New("no project id in default credentials")

// APIKeyFromADC finds the API key named displayName in the project of the
// Application Default Credentials and returns its secret. projectID, when
// set, overrides the project of the credentials.
func APIKeyFromADC(ctx context.Context, projectID, displayName string, logger *zap.Logger) (string, error) {
	logger = logging.OrNop(logger)

	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", ErrNoProjectID
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.GetDisplayName() != displayName {
			continue
		}

		// ListKeys redacts the secret.
		logger.Info("found api key resource, retrieving secret", zap.String("name", key.GetName()))

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.GetName()})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.GetKeyString() == "" {
			return "", fmt.Errorf("key '%s' found but its key string is empty", displayName)
		}

		return resp.GetKeyString(), nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}
