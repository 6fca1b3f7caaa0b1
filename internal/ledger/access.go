package ledger

import "github.com/ethereum/go-ethereum/common"

// AccessControl 所有者权限控制，所有者在初始化后不可变
type AccessControl struct {
	owner common.Address
}

// NewAccessControl 创建权限控制
func NewAccessControl(owner common.Address) AccessControl {
	return AccessControl{owner: owner}
}

// Owner 返回所有者
func (a AccessControl) Owner() common.Address {
	return a.owner
}

// OnlyOwner 校验调用者是否为所有者
func (a AccessControl) OnlyOwner(caller common.Address) error {
	if caller != a.owner {
		return ErrNotOwner
	}
	return nil
}
