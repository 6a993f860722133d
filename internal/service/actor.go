package service

// Actor 发起操作的用户及其能力，由调用方显式传入
type Actor struct {
	UserID uint
	Admin  bool
}

// AdminActor 构造管理员身份
func AdminActor(userID uint) Actor {
	return Actor{UserID: userID, Admin: true}
}

// UserActor 构造普通用户身份
func UserActor(userID uint) Actor {
	return Actor{UserID: userID}
}

func (a Actor) requireAdmin() error {
	if a.UserID == 0 || !a.Admin {
		return ErrAuthorization
	}
	return nil
}

// AdminChecker 管理员能力查询
type AdminChecker interface {
	IsAdmin(userID uint) (bool, error)
}

// ResolveActor 通过能力查询构造 Actor，查询失败时按非管理员处理
func ResolveActor(userID uint, checker AdminChecker) Actor {
	actor := UserActor(userID)
	if userID == 0 || checker == nil {
		return actor
	}
	ok, err := checker.IsAdmin(userID)
	if err != nil {
		return actor
	}
	actor.Admin = ok
	return actor
}
