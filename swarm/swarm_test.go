package swarm

import (
	"context"
	"errors"
	"testing"

	"github.com/banksean/enginectl/dwerr"
)

func TestStubsReturnUserInputError(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	var uie *dwerr.UserInputError
	if err := c.CA(ctx); !errors.As(err, &uie) {
		t.Errorf("CA() error = %v, want *dwerr.UserInputError", err)
	}
	if err := c.Unlock(ctx, "key"); !errors.As(err, &uie) {
		t.Errorf("Unlock() error = %v, want *dwerr.UserInputError", err)
	}
	if _, err := c.UnlockKey(ctx, false); !errors.As(err, &uie) {
		t.Errorf("UnlockKey() error = %v, want *dwerr.UserInputError", err)
	}
	if err := c.Update(ctx); !errors.As(err, &uie) {
		t.Errorf("Update() error = %v, want *dwerr.UserInputError", err)
	}
}
