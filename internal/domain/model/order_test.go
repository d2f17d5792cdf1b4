package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 冪等キーの一意制約は (user_id, idempotency_key) の複合でなければならない。
// キー単体のグローバル一意だと、別ユーザーが同じキーを使っただけで衝突する。
func TestOrderIdempotencyKeyUniquePerUser(t *testing.T) {
	typ := reflect.TypeOf(Order{})

	userID, ok := typ.FieldByName("UserID")
	assert.True(t, ok)
	key, ok := typ.FieldByName("IdempotencyKey")
	assert.True(t, ok)

	assert.Contains(t, userID.Tag.Get("gorm"), "uniqueIndex:uq_orders_user_idem")
	assert.Contains(t, key.Tag.Get("gorm"), "uniqueIndex:uq_orders_user_idem")
}
