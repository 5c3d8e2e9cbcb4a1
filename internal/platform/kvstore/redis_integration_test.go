//go:build integration

package kvstore

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"pawty/pkg/testutil/containers"
)

func TestRedisContract(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &kvContract{open: func() KV {
		rc.Flush(t)
		return NewRedis(rc.Client)
	}})
}
