package redis

// Redis key naming conventions for traverse data.
// All keys are prefixed with "traverse:" to avoid collisions.

const keyPrefix = "traverse:"

// instanceKey returns the key for an instance entity: traverse:instance:{id}
func instanceKey(id string) string { return keyPrefix + "instance:" + id }

// instanceIDsKey is the Set tracking all instance IDs for enumeration.
const instanceIDsKey = keyPrefix + "instance_ids"
