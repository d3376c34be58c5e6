package model

// Owned 归属于某个用户的实体
type Owned interface {
	OwnerID() int64
}
